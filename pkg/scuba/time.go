package scuba

// Все длительности внутри движка хранятся в секундах.
const (
	OneSecond = 1.0
	OneMinute = 60 * OneSecond
	OneHour   = 60 * OneMinute
)

// ToMinutes переводит секунды в минуты.
func ToMinutes(seconds float64) float64 {
	return seconds / OneMinute
}

// ToSeconds переводит минуты в секунды.
func ToSeconds(minutes float64) float64 {
	return minutes * OneMinute
}
