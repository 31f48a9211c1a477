package forms_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/ladder/internal/domain/forms"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedNow() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }

func TestParseKind(t *testing.T) {
	Convey("Display labels and internal names both parse", t, func() {
		k, err := forms.ParseKind("Friendly (Doubles)")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, forms.KindFriendlyDoubles)
		So(k.EventType(), ShouldEqual, model.TypeFriendlyDoubles)

		k, err = forms.ParseKind("singles")
		So(err, ShouldBeNil)
		So(k.TeamSize(), ShouldEqual, 1)

		_, err = forms.ParseKind("triples")
		So(errors.Is(err, forms.ErrValidation), ShouldBeTrue)
	})
}

func TestBuilder_Match(t *testing.T) {
	Convey("Given a builder", t, func() {
		b := forms.NewBuilder(rating.NewEngine(), fixedNow)

		Convey("When entering a valid singles match without a date", func() {
			rec, err := b.Match(forms.MatchInput{
				Kind:   forms.KindSingles,
				TeamA:  []string{" Tobi "},
				TeamB:  []string{"Kuba"},
				Winner: "a",
				Score:  "2:1",
				Sets:   "6,4,6",
			})

			Convey("Then a singles record dated today is produced", func() {
				So(err, ShouldBeNil)
				So(rec, ShouldResemble, model.Record{
					Date: "17.10.2026", Type: "singles", TeamA: "Tobi", TeamB: "Kuba",
					Winner: "A", Score: "2:1", Sets: "6,4,6",
				})
			})
		})

		Convey("When singles has the same player on both sides", func() {
			_, err := b.Match(forms.MatchInput{Kind: forms.KindSingles, TeamA: []string{"Tobi"}, TeamB: []string{"Tobi"}, Winner: "A"})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, forms.ErrValidation), ShouldBeTrue)
				So(errors.Is(err, forms.ErrDuplicatePlayer), ShouldBeTrue)
			})
		})

		Convey("When doubles repeats a player across teams", func() {
			_, err := b.Match(forms.MatchInput{
				Kind: forms.KindDoubles, TeamA: []string{"Tobi", "Kuba"}, TeamB: []string{"Jirka", "Kuba"}, Winner: "B",
			})
			So(errors.Is(err, forms.ErrDuplicatePlayer), ShouldBeTrue)
		})

		Convey("When doubles repeats a player within a team", func() {
			_, err := b.Match(forms.MatchInput{
				Kind: forms.KindFriendlyDoubles, TeamA: []string{"Tobi", "Tobi"}, TeamB: []string{"Jirka", "Kuba"}, Winner: "B",
			})
			So(errors.Is(err, forms.ErrDuplicatePlayer), ShouldBeTrue)
		})

		Convey("When a valid doubles friendly is entered", func() {
			rec, err := b.Match(forms.MatchInput{
				Date: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
				Kind: forms.KindFriendlyDoubles, TeamA: []string{"Tobi", "Kuba"}, TeamB: []string{"Jirka", "Novas"}, Winner: "B",
			})
			So(err, ShouldBeNil)
			So(rec.Type, ShouldEqual, "friendly_doubles")
			So(rec.TeamA, ShouldEqual, "Tobi+Kuba")
			So(rec.Date, ShouldEqual, "01.10.2026")
		})

		Convey("When a team is empty or the wrong size", func() {
			_, err := b.Match(forms.MatchInput{Kind: forms.KindSingles, TeamA: []string{""}, TeamB: []string{"Kuba"}, Winner: "A"})
			So(errors.Is(err, forms.ErrValidation), ShouldBeTrue)

			_, err = b.Match(forms.MatchInput{Kind: forms.KindDoubles, TeamA: []string{"Tobi"}, TeamB: []string{"Kuba", "Jirka"}, Winner: "A"})
			So(errors.Is(err, forms.ErrValidation), ShouldBeTrue)
		})

		Convey("When a name contains the team separator", func() {
			_, err := b.Match(forms.MatchInput{Kind: forms.KindSingles, TeamA: []string{"Tobi+Kuba"}, TeamB: []string{"Jirka"}, Winner: "A"})
			So(errors.Is(err, forms.ErrValidation), ShouldBeTrue)
		})

		Convey("When the winner is missing", func() {
			_, err := b.Match(forms.MatchInput{Kind: forms.KindSingles, TeamA: []string{"Tobi"}, TeamB: []string{"Kuba"}})
			So(errors.Is(err, forms.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestBuilder_Adjustment(t *testing.T) {
	Convey("Given a builder", t, func() {
		b := forms.NewBuilder(rating.NewEngine(), fixedNow)

		Convey("A valid adjustment becomes an adjust record", func() {
			rec, err := b.Adjustment(forms.AdjustmentInput{Player: "Kuba", Delta: -3, Reason: "wrong score"})
			So(err, ShouldBeNil)
			So(rec, ShouldResemble, model.Record{Date: "17.10.2026", Type: "adjust", TeamA: "Kuba", TeamB: "-3", Reason: "wrong score"})
		})

		Convey("An adjustment without a player is rejected", func() {
			_, err := b.Adjustment(forms.AdjustmentInput{Delta: 5})
			So(errors.Is(err, forms.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestBuilder_NewPlayer(t *testing.T) {
	Convey("Given a builder and the engine it writes for", t, func() {
		engine := rating.NewEngine()
		b := forms.NewBuilder(engine, fixedNow)

		Convey("When registering a new player at 1150", func() {
			rec, err := b.NewPlayer(forms.NewPlayerInput{Name: "Petr", StartingRating: 1150}, []string{"Tobi"})

			Convey("Then the record carries the delta and the marker", func() {
				So(err, ShouldBeNil)
				So(rec.TeamB, ShouldEqual, "150")
				So(rec.Reason, ShouldEqual, rating.DefaultNewPlayerMarker+"(1150 ELO)")
			})

			Convey("And the replay treats it as a baseline", func() {
				snap := engine.ComputeRecords([]model.Record{rec})
				r, _ := snap.Rating("Petr")
				So(r, ShouldEqual, 1150.0)
				So(snap.TotalDelta("Petr"), ShouldEqual, 0)
			})
		})

		Convey("When the name is already taken", func() {
			_, err := b.NewPlayer(forms.NewPlayerInput{Name: "Tobi", StartingRating: 1000}, []string{"Tobi"})
			So(errors.Is(err, forms.ErrPlayerExists), ShouldBeTrue)
		})

		Convey("When the starting rating is not positive", func() {
			_, err := b.NewPlayer(forms.NewPlayerInput{Name: "Eva"}, nil)
			So(errors.Is(err, forms.ErrValidation), ShouldBeTrue)
		})
	})
}
