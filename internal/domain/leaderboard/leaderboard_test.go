package leaderboard_test

import (
	"testing"

	"github.com/Lianues/LeiNaoArena/internal/domain/leaderboard"
	"github.com/Lianues/LeiNaoArena/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRank(t *testing.T) {
	Convey("Given a set of rating records", t, func() {
		records := []model.RatingRecord{
			{ModelID: "m2", Rating: 1484, Games: 1, Losses: 1},
			{ModelID: "m1", Rating: 1516, Games: 1, Wins: 1},
			{ModelID: "m3", Rating: 1500, Games: 4, Ties: 4},
			{ModelID: "m4", Rating: 1500, Games: 2, Ties: 2},
		}

		Convey("When ranking", func() {
			rows := leaderboard.Rank(records)

			Convey("Then rows are ordered by rating descending", func() {
				So(len(rows), ShouldEqual, 4)
				So(rows[0].ModelID, ShouldEqual, "m1")
				So(rows[3].ModelID, ShouldEqual, "m2")
			})

			Convey("And equal ratings break on games played", func() {
				So(rows[1].ModelID, ShouldEqual, "m3")
				So(rows[2].ModelID, ShouldEqual, "m4")
			})

			Convey("And ranks are 1-based and dense", func() {
				for i, row := range rows {
					So(row.Rank, ShouldEqual, i+1)
				}
			})

			Convey("And the input slice is left untouched", func() {
				So(records[0].ModelID, ShouldEqual, "m2")
			})
		})
	})

	Convey("Given fully identical ratings and games", t, func() {
		records := []model.RatingRecord{
			{ModelID: "zeta", Rating: 1500, Games: 1},
			{ModelID: "alpha", Rating: 1500, Games: 1},
		}

		Convey("Then model id ascending decides for determinism", func() {
			rows := leaderboard.Rank(records)
			So(rows[0].ModelID, ShouldEqual, "alpha")
			So(rows[1].ModelID, ShouldEqual, "zeta")
		})
	})

	Convey("Given no records", t, func() {
		Convey("Then the board is empty, not nil-panicking", func() {
			So(leaderboard.Rank(nil), ShouldBeEmpty)
		})
	})
}
