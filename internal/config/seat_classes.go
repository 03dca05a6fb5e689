package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"railbook/internal/domain"
)

type seatClassEntry struct {
	Name       string `mapstructure:"name"`
	Multiplier string `mapstructure:"multiplier"`
}

// SeatClassSource reads the seat class table from a YAML file and, once Watch is
// called, pushes every valid edit to the subscriber.
type SeatClassSource struct {
	v    *viper.Viper
	path string
}

// LoadSeatClasses falls back to the built-in table when path does not exist.
func LoadSeatClasses(path string) (*SeatClassSource, []domain.SeatClass, error) {
	if path == "" {
		return nil, domain.DefaultSeatClasses(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Printf("level=warn msg=\"seat class file missing, using defaults\" path=%s", path)
		return nil, domain.DefaultSeatClasses(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read seat classes: %w", err)
	}

	src := &SeatClassSource{v: v, path: path}
	classes, err := src.decode()
	if err != nil {
		return nil, nil, err
	}
	return src, classes, nil
}

func (s *SeatClassSource) decode() ([]domain.SeatClass, error) {
	var entries []seatClassEntry
	if err := s.v.UnmarshalKey("seat_classes", &entries); err != nil {
		return nil, fmt.Errorf("decode seat classes: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: seat_classes is empty", s.path)
	}

	out := make([]domain.SeatClass, 0, len(entries))
	for _, e := range entries {
		m, err := decimal.NewFromString(e.Multiplier)
		if err != nil {
			return nil, fmt.Errorf("seat class %q: invalid multiplier %q: %w", e.Name, e.Multiplier, err)
		}
		out = append(out, domain.SeatClass{Name: domain.NormalizeClassName(e.Name), Multiplier: m})
	}
	return out, nil
}

// Watch hot-reloads the file. apply may reject a table; the previous one then
// stays active.
func (s *SeatClassSource) Watch(apply func([]domain.SeatClass) error) {
	if s == nil {
		return
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		classes, err := s.decode()
		if err == nil {
			err = apply(classes)
		}
		if err != nil {
			log.Printf("level=error msg=\"seat class reload rejected\" file=%s err=%v", e.Name, err)
			return
		}
		log.Printf("level=info msg=\"seat classes reloaded\" file=%s classes=%d", e.Name, len(classes))
	})
	s.v.WatchConfig()
}
