package app

import (
	"io"
	"os"

	"github.com/y0lz/backend-json/internal/config"
	"github.com/y0lz/backend-json/internal/logx"
)

// loggerFactory builds the process logger once the config is known.
type loggerFactory struct {
	out     io.Writer
	service string
}

func (f loggerFactory) New(cfg *config.Config) logx.Logger {
	out := f.out
	if out == nil {
		out = os.Stdout
	}
	// уровень уже проверен в config.validate
	level, _ := logx.ParseLevel(cfg.LogLevel)
	return logx.NewJSON(out, level, f.service)
}
