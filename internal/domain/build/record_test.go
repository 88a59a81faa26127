package build_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/setres/internal/domain/build"
	. "github.com/smartystreets/goconvey/convey"
)

func tyranitar() build.Record {
	return build.Record{
		Gen:     9,
		Species: "Tyranitar",
		Item:    "Assault Vest",
		Ability: "Sand Stream",
		Nature:  "Careful",
		EVs:     build.Spread{build.HP: 252, build.SpD: 252, build.Def: 4},
		Moves:   []string{"Knock Off", "Rock Slide", "Low Kick", "Stealth Rock"},
	}
}

func TestSourceValid(t *testing.T) {
	Convey("Known sources are valid and anything else is not", t, func() {
		So(build.SourceSheet.Valid(), ShouldBeTrue)
		So(build.SourceServer.Valid(), ShouldBeTrue)
		So(build.Source("made-up").Valid(), ShouldBeFalse)
		So(build.Source("").Valid(), ShouldBeFalse)
	})
}

func TestIdentity(t *testing.T) {
	Convey("Given two records of the same build", t, func() {
		a := tyranitar()
		b := tyranitar()

		Convey("Cosmetic fields do not change the identity", func() {
			a.Nickname = "Godzilla"
			a.TeamName = "Sand"
			b.Name = "Specially Defensive"
			b.Source = build.SourceSheet
			So(a.Seal().ID, ShouldEqual, b.Seal().ID)
		})

		Convey("Move order does not change the identity", func() {
			b.Moves = []string{"Stealth Rock", "Low Kick", "Rock Slide", "Knock Off"}
			So(a.Seal().ID, ShouldEqual, b.Seal().ID)
		})

		Convey("An explicit default equals an unspecified stat", func() {
			b.IVs = build.Spread{build.Atk: 31}
			b.EVs[build.Spe] = 0
			So(a.Seal().ID, ShouldEqual, b.Seal().ID)
		})

		Convey("A different item changes the identity", func() {
			b.Item = "Leftovers"
			So(a.Seal().ID, ShouldNotEqual, b.Seal().ID)
		})

		Convey("A different spread changes the identity", func() {
			b.IVs = build.Spread{build.Atk: 0}
			So(a.Seal().ID, ShouldNotEqual, b.Seal().ID)
		})

		Convey("The identity is a 16 digit hex string", func() {
			So(len(a.Seal().ID), ShouldEqual, 16)
		})
	})
}

func TestMembership(t *testing.T) {
	Convey("Given a record with alternative pools", t, func() {
		r := tyranitar()
		r.AltMoves = []build.Alt[string]{build.Bare("Crunch"), build.Weighted("Earthquake", 0.4)}
		r.AltItems = []build.Alt[string]{build.Bare("Leftovers")}
		r.AltAbilities = []build.Alt[string]{build.Bare("Unnerve")}

		So(r.HasMove("knockoff"), ShouldBeTrue)
		So(r.HasMove("Earthquake"), ShouldBeTrue)
		So(r.HasMove("Dragon Dance"), ShouldBeFalse)
		So(r.HasItem("leftovers"), ShouldBeTrue)
		So(r.HasItem("Choice Band"), ShouldBeFalse)
		So(r.HasAbility("Unnerve"), ShouldBeTrue)
	})
}

func TestAlt(t *testing.T) {
	Convey("Given alternative values", t, func() {
		Convey("Weighted fractions are clamped", func() {
			f, ok := build.Weighted("Crunch", 1.5).Fraction()
			So(ok, ShouldBeTrue)
			So(f, ShouldEqual, 1.0)
			f, _ = build.Weighted("Crunch", -0.2).Fraction()
			So(f, ShouldEqual, 0.0)
		})

		Convey("Match dispatches on the tag", func() {
			var seen []string
			build.Bare("a").Match(
				func(v string) { seen = append(seen, "bare:"+v) },
				func(v string, _ float64) { seen = append(seen, "weighted:"+v) },
			)
			build.Weighted("b", 0.5).Match(
				func(v string) { seen = append(seen, "bare:"+v) },
				func(v string, _ float64) { seen = append(seen, "weighted:"+v) },
			)
			So(seen, ShouldResemble, []string{"bare:a", "weighted:b"})
		})

		Convey("JSON keeps both shapes", func() {
			in := []build.Alt[string]{build.Bare("Crunch"), build.Weighted("Earthquake", 0.25)}
			raw, err := json.Marshal(in)
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, `["Crunch",["Earthquake",0.25]]`)

			var out []build.Alt[string]
			So(json.Unmarshal(raw, &out), ShouldBeNil)
			So(out, ShouldResemble, in)
		})
	})
}

func TestSpread(t *testing.T) {
	Convey("Given a partial spread", t, func() {
		s := build.Spread{build.HP: 252, build.Def: 4}

		Convey("Fill defaults the missing stats", func() {
			So(s.Fill(0), ShouldResemble, build.Stats{252, 0, 4, 0, 0, 0})
			So(s.Fill(31).Total(), ShouldEqual, 252+4+31*4)
		})

		Convey("JSON uses stat abbreviations", func() {
			raw, err := json.Marshal(s)
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, `{"Def":4,"HP":252}`)

			var back build.Spread
			So(json.Unmarshal(raw, &back), ShouldBeNil)
			So(back, ShouldResemble, s)
		})

		Convey("Stat names parse", func() {
			st, ok := build.ParseStat("SpD")
			So(ok, ShouldBeTrue)
			So(st, ShouldEqual, build.SpD)
			_, ok = build.ParseStat("Luck")
			So(ok, ShouldBeFalse)
		})
	})
}
