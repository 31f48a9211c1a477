package config_test

import (
	"errors"
	"testing"

	"github.com/okian/ladder/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("Then the ladder constants are in place", func() {
			convey.So(cfg.Store, convey.ShouldEqual, "memory")
			convey.So(cfg.BoltPath, convey.ShouldEqual, "ladder.bolt")
			convey.So(cfg.ActivityWindowDays, convey.ShouldEqual, 30)
			convey.So(cfg.KSingles, convey.ShouldEqual, 24.0)
			convey.So(cfg.KDoubles, convey.ShouldEqual, 36.0)
			convey.So(cfg.Scale, convey.ShouldEqual, 400.0)
			convey.So(cfg.DefaultRating, convey.ShouldEqual, 1000.0)
			convey.So(cfg.SeedRatings, convey.ShouldBeNil)
			convey.So(cfg.NewPlayerMarker, convey.ShouldEqual, "Přidání hráče")
		})

		convey.Convey("And it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given configs with broken fields", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":      func(c *config.Config) { c.Addr = "" },
			"unknown store":   func(c *config.Config) { c.Store = "spreadsheet" },
			"sqlite no path":  func(c *config.Config) { c.Store, c.SQLitePath = "sqlite", "" },
			"postgres no dsn": func(c *config.Config) { c.Store = "postgres" },
			"redis no addr":   func(c *config.Config) { c.Store = "redis" },
			"bolt no path":    func(c *config.Config) { c.Store, c.BoltPath = "bolt", "" },
			"zero window":     func(c *config.Config) { c.ActivityWindowDays = 0 },
			"negative k":      func(c *config.Config) { c.KDoubles = -1 },
			"zero scale":      func(c *config.Config) { c.Scale = 0 },
			"zero default":    func(c *config.Config) { c.DefaultRating = 0 },
			"blank marker":    func(c *config.Config) { c.NewPlayerMarker = "  " },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("Then a fully configured redis store passes", func() {
			cfg := config.New()
			cfg.Store = "Redis"
			cfg.RedisAddr = "localhost:6379"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
