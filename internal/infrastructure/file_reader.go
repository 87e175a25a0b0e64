package infrastructure

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"deco-planner/pkg/scuba"

	"go.uber.org/zap"
)

var ErrInvalidFileFormat = errors.New("invalid file format")

// TXTFileReader читает план погружения из текста. Одна строка - один уровень:
//
//	depth_m duration_min [gas] [tank_id]
//
// Пустые строки и текст после # пропускаются. Без смеси уровень получает
// смесь первого баллона при построении запроса.
type TXTFileReader struct {
	logger *zap.Logger
}

func NewTXTFileReader(logger *zap.Logger) *TXTFileReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TXTFileReader{logger: logger}
}

// ReadLevels разбирает уровни плана из содержимого файла.
func (r *TXTFileReader) ReadLevels(content string) ([]scuba.Level, error) {
	var levels []scuba.Level

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if index := strings.IndexByte(line, '#'); index >= 0 {
			line = line[:index]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		level, err := parseLevel(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidFileFormat, lineNumber, err)
		}

		if level.Duration == 0 {
			r.logger.Warn("Skipping level without duration", zap.Int("line", lineNumber))
			continue
		}
		levels = append(levels, level)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrInvalidFileFormat)
	}

	r.logger.Debug("Plan parsed", zap.Int("levels", len(levels)))
	return levels, nil
}

func parseLevel(fields []string) (scuba.Level, error) {
	if len(fields) < 2 || len(fields) > 4 {
		return scuba.Level{}, fmt.Errorf("expected 2 to 4 fields, got %d", len(fields))
	}

	depth, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || depth < 0 {
		return scuba.Level{}, fmt.Errorf("bad depth %q", fields[0])
	}

	duration, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || duration < 0 {
		return scuba.Level{}, fmt.Errorf("bad duration %q", fields[1])
	}

	level := scuba.Level{Depth: depth, Duration: duration}

	if len(fields) >= 3 && fields[2] != "-" {
		gas, err := scuba.ParseGas(fields[2])
		if err != nil {
			return scuba.Level{}, err
		}
		level.Gas = gas
	}

	if len(fields) == 4 {
		tankID, err := strconv.Atoi(fields[3])
		if err != nil || tankID < 1 {
			return scuba.Level{}, fmt.Errorf("bad tank id %q", fields[3])
		}
		level.TankID = tankID
	}

	return level, nil
}

// ReadLevelsFromFile читает план из файла.
func (r *TXTFileReader) ReadLevelsFromFile(filename string) ([]scuba.Level, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return r.ReadLevels(string(content))
}
