package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging at info level", func() {
			Get().Info(ctx, "action recorded", String("name", "Bob Smith"), Int("points", 100))

			Convey("Then the record carries message, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "action recorded")
				So(out, ShouldContainSubstring, "name=\"Bob Smith\"")
				So(out, ShouldContainSubstring, "points=100")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging below the configured level", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "visible", Error(errors.New("boom")))

			Convey("Then only the warning is written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "visible")
				So(buf.String(), ShouldContainSubstring, "boom")
			})
		})

		Convey("When the context carries a request id", func() {
			Named("api").Info(WithRequestID(ctx, "req-42"), "served")

			Convey("Then the id and component are attached", func() {
				So(buf.String(), ShouldContainSubstring, "request_id=req-42")
				So(buf.String(), ShouldContainSubstring, "component=api")
			})
		})

		Convey("When setting an unknown level", func() {
			err := SetLevelString("loud")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a nil writer", t, func() {
		Convey("Then initialization fails", func() {
			So(InitWithWriter(nil), ShouldNotBeNil)
		})
	})

	Convey("Given the nop logger", t, func() {
		Convey("Then logging never panics", func() {
			So(func() { Nop().Error(nil, "ignored") }, ShouldNotPanic) //nolint:staticcheck // nil ctx is tolerated
		})
	})
}
