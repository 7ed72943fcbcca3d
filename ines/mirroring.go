package ines

//go:generate go tool stringer -type=NTMirroring

// NTMirroring is the nametable mirroring mode.
type NTMirroring uint8

const (
	HorzMirroring NTMirroring = iota
	VertMirroring
	OnlyAScreen
	OnlyBScreen
	FourScreen
)
