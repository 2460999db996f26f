package upload

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/apex/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls   []call
	results map[string]fakeResult
}

type fakeResult struct {
	out Output
	err error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if _, ok := ctx.Deadline(); !ok {
		return Output{}, errors.New("missing deadline")
	}
	r := f.results[args[0]]
	return r.out, r.err
}

func (f *fakeRunner) commandLines() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.name + " " + strings.Join(c.args, " ")
	}
	return out
}

func TestGitUploader(t *testing.T) {
	Convey("Given a git uploader with a fake runner", t, func() {
		runner := &fakeRunner{results: map[string]fakeResult{}}
		u := NewGitUploader(
			WithRunner(runner),
			WithRemote("origin", "main"),
			WithMessage("Aggiornamento classifica"),
			WithTimeout(time.Second),
		)
		ctx := context.Background()

		Convey("When uploading two files", func() {
			err := u.Upload(ctx, []string{"data.json", "index.html"})

			Convey("Then add, commit and push run in order", func() {
				So(err, ShouldBeNil)
				So(runner.commandLines(), ShouldResemble, []string{
					"git add -- data.json index.html",
					"git commit -m Aggiornamento classifica",
					"git push origin main",
				})
			})
		})

		Convey("When there is nothing to commit", func() {
			runner.results["commit"] = fakeResult{
				out: Output{Stdout: "On branch main\nnothing to commit, working tree clean\n"},
				err: errors.New("exit status 1"),
			}
			err := u.Upload(ctx, nil)

			Convey("Then the upload still succeeds and pushes", func() {
				So(err, ShouldBeNil)
				So(runner.commandLines()[0], ShouldEqual, "git add -- .")
				So(runner.calls, ShouldHaveLength, 3)
			})
		})

		Convey("When push fails", func() {
			runner.results["push"] = fakeResult{
				out: Output{Stderr: "fatal: could not read Username\n"},
				err: errors.New("exit status 128"),
			}
			err := u.Upload(ctx, []string{"data.json"})

			Convey("Then an external tool error carries stderr", func() {
				So(errors.Is(err, model.ErrExternalTool), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "git push")
				So(err.Error(), ShouldContainSubstring, "could not read Username")
			})
		})

		Convey("When add fails", func() {
			runner.results["add"] = fakeResult{err: errors.New("exit status 128"), out: Output{Stdout: "not a git repository"}}
			err := u.Upload(ctx, []string{"data.json"})

			Convey("Then nothing else runs", func() {
				So(errors.Is(err, model.ErrExternalTool), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "not a git repository")
				So(runner.calls, ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given an uploader without a remote", t, func() {
		runner := &fakeRunner{results: map[string]fakeResult{}}
		u := NewGitUploader(WithRunner(runner))

		Convey("Then push uses the repository defaults", func() {
			So(u.Upload(context.Background(), []string{"a"}), ShouldBeNil)
			So(runner.commandLines()[2], ShouldEqual, "git push")
		})
	})
}

type recordingUploader struct {
	files [][]string
}

func (r *recordingUploader) Upload(_ context.Context, files []string) error {
	r.files = append(r.files, files)
	return nil
}

func TestSubscriber(t *testing.T) {
	Convey("Given an auto-upload subscriber", t, func() {
		rec := &recordingUploader{}
		sub := NewSubscriber(rec, "data.json", "index.html")

		Convey("When a change arrives", func() {
			So(sub.OnChange(context.Background(), model.Change{ID: "1"}), ShouldBeNil)

			Convey("Then the configured files are uploaded", func() {
				So(rec.files, ShouldResemble, [][]string{{"data.json", "index.html"}})
				So(sub.Name(), ShouldEqual, "upload")
			})
		})
	})
}
