package scuba

// Compartment коэффициенты одного тканевого отсека ZH-L16C.
// Полупериоды в минутах.
type Compartment struct {
	N2HalfTime float64
	N2A        float64
	N2B        float64
	HeHalfTime float64
	HeA        float64
	HeB        float64
}

// ZHL16C таблица отсеков, первый отсек в варианте 1b.
var ZHL16C = [CompartmentCount]Compartment{
	{N2HalfTime: 5.0, N2A: 1.1696, N2B: 0.5578, HeHalfTime: 1.88, HeA: 1.6189, HeB: 0.4770},
	{N2HalfTime: 8.0, N2A: 1.0, N2B: 0.6514, HeHalfTime: 3.02, HeA: 1.3830, HeB: 0.5747},
	{N2HalfTime: 12.5, N2A: 0.8618, N2B: 0.7222, HeHalfTime: 4.72, HeA: 1.1919, HeB: 0.6527},
	{N2HalfTime: 18.5, N2A: 0.7562, N2B: 0.7825, HeHalfTime: 6.99, HeA: 1.0458, HeB: 0.7223},
	{N2HalfTime: 27.0, N2A: 0.6200, N2B: 0.8126, HeHalfTime: 10.21, HeA: 0.9220, HeB: 0.7582},
	{N2HalfTime: 38.3, N2A: 0.5043, N2B: 0.8434, HeHalfTime: 14.48, HeA: 0.8205, HeB: 0.7957},
	{N2HalfTime: 54.3, N2A: 0.4410, N2B: 0.8693, HeHalfTime: 20.53, HeA: 0.7305, HeB: 0.8279},
	{N2HalfTime: 77.0, N2A: 0.4000, N2B: 0.8910, HeHalfTime: 29.11, HeA: 0.6502, HeB: 0.8553},
	{N2HalfTime: 109.0, N2A: 0.3750, N2B: 0.9092, HeHalfTime: 41.20, HeA: 0.5950, HeB: 0.8757},
	{N2HalfTime: 146.0, N2A: 0.3500, N2B: 0.9222, HeHalfTime: 55.19, HeA: 0.5545, HeB: 0.8903},
	{N2HalfTime: 187.0, N2A: 0.3295, N2B: 0.9319, HeHalfTime: 70.69, HeA: 0.5333, HeB: 0.8997},
	{N2HalfTime: 239.0, N2A: 0.3065, N2B: 0.9403, HeHalfTime: 90.34, HeA: 0.5189, HeB: 0.9073},
	{N2HalfTime: 305.0, N2A: 0.2835, N2B: 0.9477, HeHalfTime: 115.29, HeA: 0.5181, HeB: 0.9122},
	{N2HalfTime: 390.0, N2A: 0.2610, N2B: 0.9544, HeHalfTime: 147.42, HeA: 0.5176, HeB: 0.9171},
	{N2HalfTime: 498.0, N2A: 0.2480, N2B: 0.9602, HeHalfTime: 188.24, HeA: 0.5172, HeB: 0.9217},
	{N2HalfTime: 635.0, N2A: 0.2327, N2B: 0.9653, HeHalfTime: 240.03, HeA: 0.5119, HeB: 0.9267},
}
