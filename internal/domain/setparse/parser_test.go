package setparse_test

import (
	"testing"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
	"github.com/okian/setres/internal/domain/setparse"
	. "github.com/smartystreets/goconvey/convey"
)

const tyranitarSet = "Tyranitar @ Assault Vest\n" +
	"Ability: Sand Stream\n" +
	"EVs: 252 HP / 252 SpD / 4 Def\n" +
	"Careful Nature\n" +
	"- Knock Off\n" +
	"- Rock Slide\n" +
	"- Low Kick\n" +
	"- Stealth Rock"

func TestParse(t *testing.T) {
	d := dex.Bundled()

	Convey("Given a complete set block", t, func() {
		p := setparse.New(d, setparse.WithFormat("gen9ou"))
		rec, ok := p.Parse(tyranitarSet)

		Convey("Then every field is recognised", func() {
			So(ok, ShouldBeTrue)
			So(rec.Species, ShouldEqual, "Tyranitar")
			So(rec.Item, ShouldEqual, "Assault Vest")
			So(rec.Ability, ShouldEqual, "Sand Stream")
			So(rec.Nature, ShouldEqual, "Careful")
			So(rec.EVs.Fill(0), ShouldResemble, build.Stats{252, 0, 4, 0, 252, 0})
			So(rec.Moves, ShouldResemble, []string{"Knock Off", "Rock Slide", "Low Kick", "Stealth Rock"})
			So(rec.AltMoves, ShouldBeEmpty)
			So(rec.Gen, ShouldEqual, 9)
			So(rec.Format, ShouldEqual, "gen9ou")
			So(rec.Source, ShouldEqual, build.SourceImport)
			So(rec.ID, ShouldNotBeEmpty)
		})
	})

	Convey("Given lines in an unusual order", t, func() {
		p := setparse.New(d)
		rec, ok := p.Parse("- Earthquake\nCareful Nature\nGarchomp @ Choice Scarf\nAbility: Rough Skin")

		Convey("Then the block still parses", func() {
			So(ok, ShouldBeTrue)
			So(rec.Species, ShouldEqual, "Garchomp")
			So(rec.Item, ShouldEqual, "Choice Scarf")
			So(rec.Moves, ShouldResemble, []string{"Earthquake"})
		})
	})

	Convey("Given text without a recognisable forme", t, func() {
		p := setparse.New(d)
		_, ok := p.Parse("Missingno @ Leftovers\nAbility: Sand Stream\n- Surf")

		Convey("Then the result is absent", func() {
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given unknown names in recognised lines", t, func() {
		p := setparse.New(d)
		rec, ok := p.Parse("Tyranitar @ Mystery Box\nAbility: Huge Power\nSilly Nature\n- Splash\n- Crunch\nsome junk line")

		Convey("Then only the unknown fields are dropped", func() {
			So(ok, ShouldBeTrue)
			So(rec.Item, ShouldBeEmpty)
			So(rec.Ability, ShouldBeEmpty)
			So(rec.Nature, ShouldBeEmpty)
			So(rec.Moves, ShouldResemble, []string{"Crunch"})
		})
	})

	Convey("Given nickname and gender variants", t, func() {
		p := setparse.New(d)

		Convey("A nickname needs a parenthesised forme", func() {
			rec, ok := p.Parse("Godzilla (Tyranitar) (F) @ Leftovers")
			So(ok, ShouldBeTrue)
			So(rec.Nickname, ShouldEqual, "Godzilla")
			So(rec.Species, ShouldEqual, "Tyranitar")
			So(rec.Gender, ShouldEqual, "F")
			So(rec.Item, ShouldEqual, "Leftovers")
		})

		Convey("Without parentheses the leading name is the forme", func() {
			rec, ok := p.Parse("Tyranitar (M)")
			So(ok, ShouldBeTrue)
			So(rec.Nickname, ShouldBeEmpty)
			So(rec.Gender, ShouldEqual, "M")
		})

		Convey("Gender is ignored for gender-locked formes", func() {
			rec, ok := p.Parse("Magnezone (F) @ Choice Specs")
			So(ok, ShouldBeTrue)
			So(rec.Gender, ShouldBeEmpty)
		})

		Convey("Nicknames do not change the identity", func() {
			a, _ := p.Parse("Godzilla (Tyranitar) @ Leftovers\n- Crunch")
			b, _ := p.Parse("Tyranitar @ Leftovers\n- Crunch")
			So(a.ID, ShouldEqual, b.ID)
		})
	})

	Convey("Given move lines with alternatives", t, func() {
		p := setparse.New(d)
		rec, ok := p.Parse("Tyranitar\n" +
			"- Knock Off / Crunch\n" +
			"- Stone Edge, Rock Slide, Earthquake, Low Kick\n" +
			"- Knock Off\n" +
			"- Dragon Dance\n" +
			"- Stealth Rock\n" +
			"- Ice Punch / Fire Punch / Unknown Move\n")

		Convey("Then primaries fill first and the rest becomes the alternative pool", func() {
			So(ok, ShouldBeTrue)
			So(rec.Moves, ShouldResemble, []string{"Knock Off", "Stone Edge", "Dragon Dance", "Stealth Rock"})
			So(build.Values(rec.AltMoves), ShouldResemble, []string{"Crunch", "Rock Slide", "Earthquake", "Ice Punch", "Fire Punch"})
		})
	})

	Convey("Given a hidden power move with a bracketed type", t, func() {
		p := setparse.New(d, setparse.WithGen(7))
		rec, _ := p.Parse("Charizard\n- Hidden Power [Ice]")
		So(rec.Moves, ShouldResemble, []string{"Hidden Power Ice"})
	})

	Convey("Given generation-gated lines", t, func() {
		Convey("Gen 2 drops ability and nature but keeps the item", func() {
			p := setparse.New(d, setparse.WithGen(2))
			rec, ok := p.Parse("Snorlax @ Leftovers\nAbility: Thick Fat\nCareful Nature\n- Body Slam")
			So(ok, ShouldBeTrue)
			So(rec.Ability, ShouldBeEmpty)
			So(rec.Nature, ShouldBeEmpty)
			So(rec.Item, ShouldEqual, "Leftovers")
		})

		Convey("Gen 1 also drops the item", func() {
			p := setparse.New(d, setparse.WithGen(1))
			rec, _ := p.Parse("Snorlax @ Leftovers\nEVs: 252 Spc")
			So(rec.Item, ShouldBeEmpty)
			So(rec.EVs[build.SpA], ShouldEqual, 252)
			So(rec.EVs[build.SpD], ShouldEqual, 252)
		})
	})

	Convey("Given tera and gigantamax lines", t, func() {
		Convey("The unknown type sentinel is rejected", func() {
			p := setparse.New(d)
			rec, _ := p.Parse("Tyranitar\nTera Type: ???")
			So(rec.TeraType, ShouldBeEmpty)
			rec, _ = p.Parse("Tyranitar\nTera Type: Ghost")
			So(rec.TeraType, ShouldEqual, "Ghost")
		})

		Convey("Gigantamax picks the max forme in gen 8", func() {
			p := setparse.New(d, setparse.WithFormat("gen8ou"))
			rec, _ := p.Parse("Gigantamax: Yes\nCharizard @ Heavy-Duty Boots")
			So(rec.Species, ShouldEqual, "Charizard-Gmax")
			So(rec.Gigantamax, ShouldBeTrue)
		})

		Convey("Gigantamax is ignored when no max forme exists", func() {
			p := setparse.New(d, setparse.WithGen(8))
			rec, _ := p.Parse("Tyranitar\nGigantamax: Yes")
			So(rec.Species, ShouldEqual, "Tyranitar")
			So(rec.Gigantamax, ShouldBeFalse)
		})
	})

	Convey("Given numeric lines out of range", t, func() {
		p := setparse.New(d)
		rec, _ := p.Parse("Tyranitar\nLevel: 150\nEVs: 300 HP / 4 Luck / 252 Atk\nIVs: 0 Atk / 40 Spe")
		So(rec.Level, ShouldEqual, 0)
		So(rec.EVs, ShouldResemble, build.Spread{build.Atk: 252})
		So(rec.IVs, ShouldResemble, build.Spread{build.Atk: 0})
	})
}

func TestSplit(t *testing.T) {
	d := dex.Bundled()

	Convey("Given a team blob", t, func() {
		p := setparse.New(d)
		blob := tyranitarSet + "\n\n" +
			"Garchomp @ Choice Scarf\nAbility: Rough Skin\n- Earthquake\n\n" +
			"Missingno\n- Surf\n"

		Convey("When split into blocks", func() {
			blocks := p.Split(blob)

			Convey("Then every forme-like line starts a block", func() {
				So(len(blocks), ShouldEqual, 3)
				So(blocks[1][0], ShouldEqual, "Garchomp @ Choice Scarf")
				So(blocks[2][0], ShouldEqual, "Missingno")
			})
		})

		Convey("When parsed as a whole", func() {
			recs := p.ParseAll(blob)

			Convey("Then one record per forme is produced", func() {
				So(len(recs), ShouldEqual, 2)
				So(recs[0].Species, ShouldEqual, "Tyranitar")
				So(recs[1].Species, ShouldEqual, "Garchomp")
				So(recs[1].Moves, ShouldResemble, []string{"Earthquake"})
			})
		})

		Convey("When an unknown forme sits between two known ones", func() {
			recs := p.ParseAll("Tyranitar @ Assault Vest\n- Knock Off\n\n" +
				"Fakemon @ Leftovers\nAbility: Intimidate\nJolly Nature\n- Earthquake\n- Stealth Rock\n\n" +
				"Garchomp @ Choice Scarf\n- Stone Edge")

			Convey("Then its lines are dropped with it", func() {
				So(len(recs), ShouldEqual, 2)
				So(recs[0].Species, ShouldEqual, "Tyranitar")
				So(recs[0].Item, ShouldEqual, "Assault Vest")
				So(recs[0].Ability, ShouldBeEmpty)
				So(recs[0].Nature, ShouldBeEmpty)
				So(recs[0].Moves, ShouldResemble, []string{"Knock Off"})
				So(recs[1].Species, ShouldEqual, "Garchomp")
				So(recs[1].Moves, ShouldResemble, []string{"Stone Edge"})
			})
		})

		Convey("When the blob has no forme at all", func() {
			So(p.ParseAll("hello\nworld"), ShouldBeEmpty)
		})
	})
}

func TestExportRoundTrip(t *testing.T) {
	d := dex.Bundled()

	Convey("Given parsed records", t, func() {
		p := setparse.New(d, setparse.WithGen(8))
		inputs := []string{
			tyranitarSet,
			"Zard (Charizard) (M) @ Heavy-Duty Boots\nAbility: Solar Power\nGigantamax: Yes\nLevel: 50\nShiny: Yes\nEVs: 4 HP / 252 SpA / 252 Spe\nTimid Nature\nIVs: 0 Atk\n- Fire Blast\n- Air Slash\n- Focus Blast\n- Roost",
		}

		for _, in := range inputs {
			rec, ok := p.Parse(in)
			So(ok, ShouldBeTrue)

			Convey("Exporting and re-parsing keeps the identity of "+rec.Species, func() {
				again, ok := p.Parse(setparse.Export(rec))
				So(ok, ShouldBeTrue)
				So(again.ID, ShouldEqual, rec.ID)
				So(again.Species, ShouldEqual, rec.Species)
				So(again.Nickname, ShouldEqual, rec.Nickname)
				So(again.Level, ShouldEqual, rec.Level)
			})
		}

		Convey("ExportAll produces blocks ParseAll can read back", func() {
			recs := p.ParseAll(tyranitarSet + "\nGarchomp\n- Earthquake")
			back := p.ParseAll(setparse.ExportAll(recs))
			So(len(back), ShouldEqual, 2)
			So(back[0].ID, ShouldEqual, recs[0].ID)
			So(back[1].ID, ShouldEqual, recs[1].ID)
		})
	})
}
