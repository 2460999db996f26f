package names_test

import (
	"testing"

	"github.com/okian/apex/internal/domain/names"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStandardize(t *testing.T) {
	Convey("Given free-text names", t, func() {
		cases := map[string]string{
			"bob smith":           "Bob Smith",
			"  BOB   SMITH  ":     "Bob Smith",
			"smith bob":           "Smith Bob",
			"jane\tdoe\n":         "Jane Doe",
			"maria de los santos": "Maria De Los Santos",
			"élodie durand":       "Élodie Durand",
			"":                    "",
			"   ":                 "",
		}

		Convey("Then each is trimmed and title-cased word by word", func() {
			for in, want := range cases {
				So(names.Standardize(in), ShouldEqual, want)
			}
		})

		Convey("Then standardizing twice changes nothing", func() {
			for in := range cases {
				once := names.Standardize(in)
				So(names.Standardize(once), ShouldEqual, once)
			}
			for _, in := range []string{"mIxEd CaSe", "o'neil mc-donald", "x  y z"} {
				once := names.Standardize(in)
				So(names.Standardize(once), ShouldEqual, once)
			}
		})
	})
}

func TestResolve(t *testing.T) {
	Convey("Given a board with existing collaborators", t, func() {
		existing := []string{"Bob Smith", "Jane Doe", "Anna Maria Neri"}

		Convey("When the input matches exactly after standardizing", func() {
			name, ok := names.Resolve("  bob SMITH ", existing)

			Convey("Then the existing name is returned", func() {
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "Bob Smith")
			})
		})

		Convey("When the words are in a different order", func() {
			Convey("Then every permutation resolves to the same collaborator", func() {
				for _, in := range []string{
					"Neri Anna Maria", "maria neri anna", "anna neri maria",
					"Maria Anna Neri", "neri maria anna", "ANNA MARIA NERI",
				} {
					name, ok := names.Resolve(in, existing)
					So(ok, ShouldBeTrue)
					So(name, ShouldEqual, "Anna Maria Neri")
				}
			})
		})

		Convey("When title-casing changes more than the letter case", func() {
			withLigature := []string{names.Standardize("ﬁnn rossi")}
			name, ok := names.Resolve("rossi ﬁnn", withLigature)

			Convey("Then a reordered input still resolves", func() {
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, withLigature[0])
				So(names.Same("rossi ﬁnn", withLigature[0]), ShouldBeTrue)
			})
		})

		Convey("When only some of the words match", func() {
			_, ok := names.Resolve("Bob", existing)
			_, ok2 := names.Resolve("Bob Smith Jr", existing)

			Convey("Then nothing is resolved", func() {
				So(ok, ShouldBeFalse)
				So(ok2, ShouldBeFalse)
			})
		})

		Convey("When the input is blank", func() {
			_, ok := names.Resolve("   ", existing)

			Convey("Then nothing is resolved", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When stored names are not canonical", func() {
			name, ok := names.Resolve("doe jane", []string{"jane DOE"})

			Convey("Then the stored spelling is returned", func() {
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "jane DOE")
			})
		})

		Convey("When two stored names share the same words", func() {
			name, ok := names.Resolve("smith bob", []string{"Bob Smith", "Smith Bob"})

			Convey("Then the exact standardized match wins over the first match", func() {
				So(ok, ShouldBeTrue)
				So(name, ShouldEqual, "Smith Bob")
			})
		})
	})
}

func TestSame(t *testing.T) {
	Convey("Given two spellings", t, func() {
		So(names.Same("Jane Doe", "doe  JANE"), ShouldBeTrue)
		So(names.Same("Jane Doe", "Jane"), ShouldBeFalse)
		So(names.Same("", ""), ShouldBeFalse)
	})
}
