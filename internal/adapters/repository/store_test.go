package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/setres/internal/domain/build"
)

func sample() []build.Record {
	return []build.Record{
		{Source: build.SourceCorpus, Gen: 9, Format: "gen9ou", Species: "Tyranitar", Item: "Leftovers", Moves: []string{"Stealth Rock", "Knock Off"}},
		{Source: build.SourceCorpus, Gen: 9, Format: "gen9ubers", Species: "Kingambit", Item: "Black Glasses"},
		{Source: build.SourceUsage, Gen: 9, Format: "gen9ou", Species: "Tyranitar", AltMoves: []build.Alt[string]{build.Weighted("Stone Edge", 0.8)}},
		{Source: build.SourceCorpus, Gen: 8, Format: "gen8ou", Species: "Garchomp", EVs: build.Spread{build.Atk: 252, build.Spe: 252}},
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	open := map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"sqlite": func() Store {
			s, err := OpenSQLite(ctx, ":memory:")
			So(err, ShouldBeNil)
			return s
		},
	}

	for name, newStore := range open {
		Convey("Given an empty "+name+" store", t, func() {
			s := newStore()
			So(s.Count(ctx), ShouldEqual, 0)

			Convey("When records are put", func() {
				t0 := time.Unix(1000, 0)
				So(s.Put(ctx, sample(), t0), ShouldBeNil)

				Convey("Then they are sealed and counted", func() {
					So(s.Count(ctx), ShouldEqual, 4)
					recs, err := s.ByFormat(ctx, 9, "gen9ou")
					So(err, ShouldBeNil)
					So(len(recs), ShouldEqual, 2)
					So(recs[0].ID, ShouldEqual, sample()[0].Seal().ID)
					So(recs[0].Moves, ShouldResemble, []string{"Stealth Rock", "Knock Off"})
				})

				Convey("Then an empty format returns the whole generation in order", func() {
					recs, err := s.ByFormat(ctx, 9, "")
					So(err, ShouldBeNil)
					So(len(recs), ShouldEqual, 3)
					So(recs[1].Species, ShouldEqual, "Kingambit")
				})

				Convey("Then records can be read by source", func() {
					recs, err := s.BySource(ctx, 9, build.SourceUsage)
					So(err, ShouldBeNil)
					So(len(recs), ShouldEqual, 1)
					So(recs[0].AltMoves[0].Value(), ShouldEqual, "Stone Edge")

					gen8, err := s.BySource(ctx, 8, build.SourceCorpus)
					So(err, ShouldBeNil)
					spe, ok := gen8[0].EVs.Get(build.Spe)
					So(ok, ShouldBeTrue)
					So(spe, ShouldEqual, 252)
				})

				Convey("Then putting the same records again replaces them", func() {
					So(s.Put(ctx, sample(), t0.Add(time.Hour)), ShouldBeNil)
					So(s.Count(ctx), ShouldEqual, 4)
				})

				Convey("Then pruning drops stale entries only", func() {
					So(s.Put(ctx, sample()[:1], t0.Add(2*time.Hour)), ShouldBeNil)
					n, err := s.Prune(ctx, t0.Add(time.Hour))
					So(err, ShouldBeNil)
					So(n, ShouldEqual, 3)
					So(s.Count(ctx), ShouldEqual, 1)
				})
			})

			Convey("When a record has no species", func() {
				err := s.Put(ctx, []build.Record{{Gen: 9, Source: build.SourceCorpus}}, time.Now())
				So(errors.Is(err, ErrInvalid), ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 0)
			})
		})
	}

	Convey("Given a closed sqlite store", t, func() {
		s, err := OpenSQLite(ctx, ":memory:")
		So(err, ShouldBeNil)
		So(s.Close(), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		So(errors.Is(s.Put(ctx, sample(), time.Now()), ErrClosed), ShouldBeTrue)
		_, err = s.ByFormat(ctx, 9, "")
		So(errors.Is(err, ErrClosed), ShouldBeTrue)
		So(s.Count(ctx), ShouldEqual, 0)
	})
}
