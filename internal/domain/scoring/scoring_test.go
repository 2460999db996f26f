package scoring_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/apex/internal/domain/model"
	"github.com/okian/apex/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func newTable() *scoring.Table {
	return scoring.NewTable(
		scoring.WithPoints(map[string]int{
			"Collaboratore diretto": 100,
			"Meeting day":           50,
			"Change your life":      50,
			"Incentive da 5":        50,
			"Segnalazione":          25,
			"Broken":                0,
		}),
		scoring.WithDailyLimited("Meeting day"),
	)
}

func TestTable(t *testing.T) {
	Convey("Given the default point table", t, func() {
		table := newTable()

		Convey("When looking up a known action", func() {
			p, err := table.Points("Collaboratore diretto")

			Convey("Then its value is returned", func() {
				So(err, ShouldBeNil)
				So(p, ShouldEqual, 100)
			})
		})

		Convey("When looking up an unknown or non-positive action", func() {
			_, err := table.Points("Colazione")
			_, err2 := table.Points("Broken")

			Convey("Then ErrUnknownAction is returned", func() {
				So(errors.Is(err, scoring.ErrUnknownAction), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Colazione")
				So(errors.Is(err2, scoring.ErrUnknownAction), ShouldBeTrue)
			})
		})

		Convey("Then only the check-in action is daily limited", func() {
			So(table.IsDailyLimited("Meeting day"), ShouldBeTrue)
			So(table.IsDailyLimited("Change your life"), ShouldBeFalse)
			So(table.IsDailyLimited("Incentive da 5"), ShouldBeFalse)
			So(table.DailyLimited(), ShouldEqual, "Meeting day")
		})

		Convey("Then kinds are listed by value then name", func() {
			kinds := table.Kinds()
			So(kinds, ShouldHaveLength, 5)
			So(kinds[0], ShouldResemble, scoring.Kind{Name: "Collaboratore diretto", Points: 100})
			So(kinds[1].Name, ShouldEqual, "Change your life")
			So(kinds[3], ShouldResemble, scoring.Kind{Name: "Meeting day", Points: 50, DailyLimited: true})
			So(kinds[4].Name, ShouldEqual, "Segnalazione")
		})
	})

	Convey("Given a table without a daily limit", t, func() {
		table := scoring.NewTable(scoring.WithPoints(map[string]int{"A": 1}))

		Convey("Then no kind is limited", func() {
			So(table.IsDailyLimited(""), ShouldBeFalse)
			So(table.IsDailyLimited("A"), ShouldBeFalse)
		})
	})
}

func at(day int, hour int) model.Timestamp {
	return model.NewTimestamp(time.Date(2024, 3, day, hour, 0, 0, 0, time.Local))
}

func TestHasOnDay(t *testing.T) {
	Convey("Given a history with one check-in", t, func() {
		actions := []model.Action{
			{Kind: "Segnalazione", Points: 25, At: at(1, 9)},
			{Kind: "Meeting day", Points: 50, At: at(2, 23)},
		}

		Convey("Then the same calendar day is detected", func() {
			So(scoring.HasOnDay(actions, "Meeting day", time.Date(2024, 3, 2, 0, 5, 0, 0, time.Local)), ShouldBeTrue)
		})

		Convey("Then other days and kinds are not", func() {
			So(scoring.HasOnDay(actions, "Meeting day", time.Date(2024, 3, 3, 0, 0, 0, 0, time.Local)), ShouldBeFalse)
			So(scoring.HasOnDay(actions, "Meeting day", time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)), ShouldBeFalse)
			So(scoring.HasOnDay(actions, "Collaboratore diretto", time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)), ShouldBeFalse)
			So(scoring.HasOnDay(nil, "Meeting day", time.Now()), ShouldBeFalse)
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given a board with ties", t, func() {
		doc := &model.Document{Collaborators: []model.Collaborator{
			{Name: "Carla", Actions: []model.Action{{Points: 50}}},
			{Name: "Bob", Actions: []model.Action{{Points: 100}, {Points: 25}}},
			{Name: "Anna", Actions: []model.Action{{Points: 25}, {Points: 25}}},
			{Name: "Dario"},
		}}

		Convey("When ranking", func() {
			entries := scoring.Rank(doc)

			Convey("Then totals are descending and ties keep document order", func() {
				So(entries, ShouldResemble, []model.Entry{
					{Rank: 1, Name: "Bob", Points: 125},
					{Rank: 2, Name: "Carla", Points: 50},
					{Rank: 3, Name: "Anna", Points: 50},
					{Rank: 4, Name: "Dario", Points: 0},
				})
			})
		})
	})

	Convey("Given an empty board", t, func() {
		Convey("Then the ranking is empty", func() {
			So(scoring.Rank(&model.Document{}), ShouldBeEmpty)
			So(scoring.Total(nil), ShouldEqual, 0)
		})
	})
}
