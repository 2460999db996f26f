package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) Reload(context.Context) (bool, error) {
	c.calls.Add(1)
	return true, nil
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher(t *testing.T) {
	Convey("Given a watcher on a data file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "data.json")
		So(os.WriteFile(path, []byte("{}"), 0o644), ShouldBeNil)

		target := &countingReloader{}
		w := New(path, target, WithDebounce(50*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		So(w.Start(ctx), ShouldBeNil)
		defer w.Stop()

		Convey("When the file is written several times quickly", func() {
			for i := 0; i < 5; i++ {
				So(os.WriteFile(path, []byte(`{"A": []}`), 0o644), ShouldBeNil)
			}

			Convey("Then a single debounced reload happens", func() {
				So(waitFor(func() bool { return target.calls.Load() >= 1 }), ShouldBeTrue)
				time.Sleep(200 * time.Millisecond)
				So(target.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When another file in the directory changes", func() {
			So(os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>"), 0o644), ShouldBeNil)
			time.Sleep(300 * time.Millisecond)

			Convey("Then nothing is reloaded", func() {
				So(target.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When stopping twice", func() {
			w.Stop()

			Convey("Then it is harmless", func() {
				So(func() { w.Stop() }, ShouldNotPanic)
			})
		})
	})

	Convey("Given a path in a missing directory", t, func() {
		w := New(filepath.Join(t.TempDir(), "missing", "data.json"), &countingReloader{})

		Convey("Then Start fails", func() {
			So(w.Start(context.Background()), ShouldNotBeNil)
		})
	})
}
