package patrol

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func writeConfig(dir, body string) string {
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		panic(err)
	}
	return path
}

func TestFromYaml(t *testing.T) {
	Convey("When a config file is loaded", t, func() {
		dir := t.TempDir()

		Convey("Camel-cased keys are decoded from the envelope's definition", func() {
			path := writeConfig(dir, `
kind: patrol
def:
  workers: 3
  candidates: path
  deadlockPolicy: error
  progressInterval: 7
  searchDeadline:
    duration: 5s
`)
			cfg, err := FromYaml(path)
			So(err, ShouldBeNil)
			So(cfg.Workers, ShouldEqual, 3)
			So(cfg.Candidates, ShouldEqual, CANDIDATES_PATH)
			So(cfg.Policy(), ShouldEqual, DeadlockError)
			So(cfg.ProgressInterval, ShouldEqual, 7)

			ctx, cancel, err := cfg.WithSearchDeadline(context.Background())
			So(err, ShouldBeNil)
			defer cancel()
			deadline, ok := ctx.Deadline()
			So(ok, ShouldBeTrue)
			So(time.Until(deadline), ShouldBeLessThanOrEqualTo, 5*time.Second)
		})

		Convey("Omitted fields take their defaults", func() {
			path := writeConfig(dir, "kind: patrol\ndef:\n  candidates: all\n")
			cfg, err := FromYaml(path)
			So(err, ShouldBeNil)
			So(cfg.Workers, ShouldEqual, runtime.NumCPU())
			So(cfg.Policy(), ShouldEqual, DeadlockLoop)
			So(cfg.ProgressInterval, ShouldEqual, DefaultConfig().ProgressInterval)

			ctx, cancel, err := cfg.WithSearchDeadline(context.Background())
			So(err, ShouldBeNil)
			defer cancel()
			_, ok := ctx.Deadline()
			So(ok, ShouldBeFalse)
		})

		Convey("A different kind is rejected", func() {
			path := writeConfig(dir, "kind: training\ndef:\n  workers: 1\n")
			_, err := FromYaml(path)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("Bad values are rejected", func() {
			for _, def := range []string{
				"  candidates: everywhere\n",
				"  deadlockPolicy: spin\n",
				"  workers: -2\n",
				"  searchDeadline:\n    duration: soon\n",
			} {
				path := writeConfig(dir, "kind: patrol\ndef:\n"+def)
				_, err := FromYaml(path)
				So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			}
		})

		Convey("A missing file is an error", func() {
			_, err := FromYaml(filepath.Join(dir, "absent.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}
