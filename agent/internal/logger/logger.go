package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var L = zerolog.New(io.Discard)

// Init writes console-formatted logs to path, or stdout when path is empty.
func Init(path, level string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w = file
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	L = log.Output(zerolog.ConsoleWriter{Out: w}).Level(lvl)
	return nil
}

func Info(v ...interface{})                     { L.Info().Msg(fmt.Sprint(v...)) }
func Warn(v ...interface{})                     { L.Warn().Msg(fmt.Sprint(v...)) }
func Error(v ...interface{})                    { L.Error().Msg(fmt.Sprint(v...)) }
func Infof(f string, v ...interface{})          { L.Info().Msgf(f, v...) }
func Warnf(f string, v ...interface{})          { L.Warn().Msgf(f, v...) }
func Errorf(f string, v ...interface{})         { L.Error().Msgf(f, v...) }
func Debugf(f string, v ...interface{})         { L.Debug().Msgf(f, v...) }
func Sprintf(f string, v ...interface{}) string { return fmt.Sprintf(f, v...) }
