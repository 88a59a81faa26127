package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/setres/internal/adapters/repository"
	"github.com/okian/setres/internal/config"
)

func TestOpenDex(t *testing.T) {
	convey.Convey("Given no dex path", t, func() {
		d, err := openDex("")
		convey.So(err, convey.ShouldBeNil)
		_, ok := d.Species("Tyranitar")
		convey.So(ok, convey.ShouldBeTrue)
	})

	convey.Convey("Given a missing dex file", t, func() {
		_, err := openDex(filepath.Join(t.TempDir(), "missing.yaml"))
		convey.So(err, convey.ShouldNotBeNil)
	})
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given no cache DSN", t, func() {
		s, err := openStore(ctx, "")
		convey.So(err, convey.ShouldBeNil)
		_, ok := s.(*repository.MemoryStore)
		convey.So(ok, convey.ShouldBeTrue)
	})

	convey.Convey("Given a sqlite DSN", t, func() {
		s, err := openStore(ctx, filepath.Join(t.TempDir(), "cache.db"))
		convey.So(err, convey.ShouldBeNil)
		sq, ok := s.(*repository.SQLiteStore)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(sq.Close(), convey.ShouldBeNil)
	})
}

func TestRunInvalidConfig(t *testing.T) {
	convey.Convey("Given an invalid configuration", t, func() {
		t.Setenv("SETRES_CONFIG", "")
		t.Setenv("SETRES_ADDR", "")
		t.Setenv("SETRES_TRIGGER_QUEUE_SIZE", "0")

		err := run(context.Background())
		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
	})
}

func TestRunShutdown(t *testing.T) {
	convey.Convey("Given a valid configuration and a cancelled context", t, func() {
		t.Setenv("SETRES_CONFIG", "")
		t.Setenv("SETRES_ADDR", "127.0.0.1:0")
		t.Setenv("SETRES_LOG_FORMAT", "json")
		devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		convey.So(err, convey.ShouldBeNil)
		defer devNull.Close()
		stdout := os.Stdout
		os.Stdout = devNull
		defer func() { os.Stdout = stdout }()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		convey.Convey("Then it starts and shuts down cleanly", func() {
			convey.So(run(ctx), convey.ShouldBeNil)
		})
	})
}
