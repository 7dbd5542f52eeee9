package commands

import "github.com/doeshing/shai-agent/internal/app"

// ContainerFunc returns the lazily built dependency container. It is
// resolved inside RunE so persistent flags are parsed first.
type ContainerFunc func() (*app.Container, error)

// History defaults
const (
	DefaultHistoryLimit = 20
	queryPreviewWidth   = 60
	messagePreviewWidth = 120
)

// Success messages
const (
	MsgConfigurationValid = "Configuration valid"
	MsgNoHistoryRecorded  = "No history recorded yet."
	MsgHistoryCleared     = "History cleared."
)
