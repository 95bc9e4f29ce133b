package rating_test

import (
	"testing"

	"github.com/Lianues/LeiNaoArena/internal/domain/model"
	"github.com/Lianues/LeiNaoArena/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEngine_Update(t *testing.T) {
	Convey("Given two models at the baseline rating with K=32", t, func() {
		eng := rating.NewEngine(rating.WithKFactor(32), rating.WithBaseline(1500))
		a := eng.NewRecord("m2")
		b := eng.NewRecord("m1")

		Convey("When B wins", func() {
			na, nb := eng.Update(a, b, model.OutcomeWinB)

			Convey("Then the winner gains 16 and the loser drops 16", func() {
				So(nb.Rating, ShouldAlmostEqual, 1516.0)
				So(na.Rating, ShouldAlmostEqual, 1484.0)
			})

			Convey("And the counters reflect one decided game", func() {
				So(na.Games, ShouldEqual, 1)
				So(nb.Games, ShouldEqual, 1)
				So(nb.Wins, ShouldEqual, 1)
				So(na.Losses, ShouldEqual, 1)
				So(na.Wins, ShouldEqual, 0)
				So(na.Ties, ShouldEqual, 0)
			})
		})

		Convey("When A wins", func() {
			na, nb := eng.Update(a, b, model.OutcomeWinA)
			So(na.Rating, ShouldAlmostEqual, 1516.0)
			So(nb.Rating, ShouldAlmostEqual, 1484.0)
			So(na.Wins, ShouldEqual, 1)
			So(nb.Losses, ShouldEqual, 1)
		})

		Convey("When the battle ties at equal rating", func() {
			na, nb := eng.Update(a, b, model.OutcomeTie)

			Convey("Then neither rating drifts", func() {
				So(na.Rating, ShouldAlmostEqual, 1500.0)
				So(nb.Rating, ShouldAlmostEqual, 1500.0)
				So(na.Ties, ShouldEqual, 1)
				So(nb.Ties, ShouldEqual, 1)
			})
		})

		Convey("When the outcome is bad", func() {
			na, nb := eng.Update(a, b, model.OutcomeBad)

			Convey("Then ratings are untouched but both games count", func() {
				So(na.Rating, ShouldAlmostEqual, 1500.0)
				So(nb.Rating, ShouldAlmostEqual, 1500.0)
				So(na.Games, ShouldEqual, 1)
				So(nb.Games, ShouldEqual, 1)
				So(na.Wins+na.Losses+na.Ties, ShouldEqual, 0)
				So(nb.Wins+nb.Losses+nb.Ties, ShouldEqual, 0)
			})
		})
	})

	Convey("Given unequal ratings", t, func() {
		eng := rating.NewEngine()
		a := model.RatingRecord{ModelID: "strong", Rating: 1700}
		b := model.RatingRecord{ModelID: "weak", Rating: 1300}

		Convey("When the favorite wins", func() {
			na, nb := eng.Update(a, b, model.OutcomeWinA)

			Convey("Then the movement is small and symmetric", func() {
				gain := na.Rating - 1700
				loss := 1300 - nb.Rating
				So(gain, ShouldAlmostEqual, loss)
				So(gain, ShouldBeGreaterThan, 0)
				So(gain, ShouldBeLessThan, 16)
			})
		})

		Convey("When the underdog wins", func() {
			na, nb := eng.Update(a, b, model.OutcomeWinB)
			gain := nb.Rating - 1300
			So(gain, ShouldBeGreaterThan, 16)
			So(gain, ShouldBeLessThan, 32)
			So(na.Rating-1700, ShouldAlmostEqual, -(gain))
		})

		Convey("Then both deltas come from the same snapshot", func() {
			// The sum of ratings is conserved for decided outcomes.
			na, nb := eng.Update(a, b, model.OutcomeWinB)
			So(na.Rating+nb.Rating, ShouldAlmostEqual, a.Rating+b.Rating)
			na, nb = eng.Update(a, b, model.OutcomeTie)
			So(na.Rating+nb.Rating, ShouldAlmostEqual, a.Rating+b.Rating)
		})
	})

	Convey("Given the expected score helper", t, func() {
		Convey("Then equal ratings expect an even split", func() {
			So(rating.Expected(1500, 1500), ShouldAlmostEqual, 0.5)
		})
		Convey("And a 400 point edge expects roughly 10:1 odds", func() {
			So(rating.Expected(1900, 1500), ShouldAlmostEqual, 10.0/11.0, 1e-9)
		})
	})
}
