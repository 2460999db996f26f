package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/apex/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRender(t *testing.T) {
	Convey("Given a renderer with a logo and a frozen clock", t, func() {
		r := NewRenderer(
			WithTitle("Classifica di prova"),
			WithLogo("logo.png"),
			WithPublicURL("https://example.org/report/"),
			WithClock(func() time.Time { return time.Date(2024, 3, 1, 18, 5, 0, 0, time.Local) }),
		)

		Convey("When rendering a ranking", func() {
			var buf bytes.Buffer
			err := r.Render(&buf, []model.Entry{
				{Rank: 1, Name: "Bob Smith", Points: 150},
				{Rank: 2, Name: "<script>x</script>", Points: 25},
			})
			html := buf.String()

			Convey("Then rows appear in order with escaped names", func() {
				So(err, ShouldBeNil)
				So(html, ShouldContainSubstring, "<title>Classifica di prova</title>")
				So(html, ShouldContainSubstring, `<td class="pos">1</td><td>Bob Smith</td><td class="points">150</td>`)
				So(html, ShouldContainSubstring, "&lt;script&gt;")
				So(html, ShouldNotContainSubstring, "<script>x")
				So(bytes.Index(buf.Bytes(), []byte("Bob Smith")), ShouldBeLessThan, bytes.Index(buf.Bytes(), []byte("&lt;script")))
			})

			Convey("Then the logo, timestamp and link are shown", func() {
				So(html, ShouldContainSubstring, `<img src="logo.png"`)
				So(html, ShouldContainSubstring, "Aggiornato il 01/03/2024 18:05")
				So(html, ShouldContainSubstring, `href="https://example.org/report/"`)
			})
		})

		Convey("When rendering an empty ranking without a logo", func() {
			var buf bytes.Buffer
			err := NewRenderer(WithLogo("")).Render(&buf, nil)

			Convey("Then a placeholder row is shown", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, "Nessun collaboratore in classifica")
				So(buf.String(), ShouldNotContainSubstring, "<img")
				So(buf.String(), ShouldContainSubstring, "Classifica Apex Challenge")
			})
		})
	})
}

func TestWriteFileAndSubscriber(t *testing.T) {
	Convey("Given a renderer writing into a temp dir", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "index.html")
		r := NewRenderer(WithPath(path))

		Convey("When a change arrives", func() {
			sub := NewSubscriber(r)
			doc := model.Document{Collaborators: []model.Collaborator{
				{Name: "Anna", Actions: []model.Action{{Kind: "Segnalazione", Points: 25}}},
				{Name: "Bob", Actions: []model.Action{{Kind: "Collaboratore diretto", Points: 100}}},
			}}
			err := sub.OnChange(context.Background(), model.Change{ID: "1", Document: doc})

			Convey("Then the file holds the ranked page and no temp files remain", func() {
				So(err, ShouldBeNil)
				raw, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(bytes.Index(raw, []byte("Bob")), ShouldBeLessThan, bytes.Index(raw, []byte("Anna")))
				entries, _ := os.ReadDir(dir)
				So(entries, ShouldHaveLength, 1)
				So(sub.Name(), ShouldEqual, "report")
			})
		})

		Convey("When the target directory does not exist", func() {
			err := NewRenderer(WithPath(filepath.Join(dir, "missing", "index.html"))).WriteFile(nil)

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
