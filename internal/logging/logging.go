// Package logging configures the process-wide logrus logger.
package logging

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"voxelcraft.ai/worldstore/internal/config"
)

// Init applies cfg to the standard logrus logger.
func Init(cfg config.Log) error {
	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "color":
		log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	lvl, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return errors.WithMessage(err, "log level")
	}
	log.SetLevel(lvl)
	return nil
}

// Component returns a logger tagged with the given component name.
func Component(name string) log.FieldLogger {
	return log.WithField("component", name)
}
