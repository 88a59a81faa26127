package pool_test

import (
	"testing"

	"github.com/okian/setres/internal/domain/build"
	"github.com/okian/setres/internal/domain/dex"
	"github.com/okian/setres/internal/domain/pool"
	. "github.com/smartystreets/goconvey/convey"
)

func rec(species, format, name string) build.Record {
	return build.Record{
		Source:  build.SourceCorpus,
		Gen:     dex.GenFromFormat(format),
		Format:  format,
		Species: species,
		Name:    name,
	}.Seal()
}

func names(recs []build.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}

func TestSelect(t *testing.T) {
	d := dex.Bundled()
	s := pool.New(d)

	Convey("Given records across formats and formes", t, func() {
		records := []build.Record{
			rec("Tyranitar", "gen9uu", "uu"),
			rec("Tyranitar", "gen9ou", "ou"),
			rec("Garchomp", "gen9ou", "chomp"),
			rec("Tyranitar", "gen9randombattle", "random"),
			rec("Tyranitar", "gen8ou", "old"),
		}

		Convey("The exact format wins when present", func() {
			out := s.Select(records, pool.Query{Species: "Tyranitar", Format: "gen9ou"})
			So(names(out), ShouldResemble, []string{"ou"})
		})

		Convey("Without an exact match the same-gen non-random tier is used", func() {
			out := s.Select(records, pool.Query{Species: "Tyranitar", Format: "gen9ubers"})
			So(names(out), ShouldResemble, []string{"uu", "ou"})
		})

		Convey("Randomized records are only reached by the last tier", func() {
			only := []build.Record{records[3], records[4]}
			out := s.Select(only, pool.Query{Species: "Tyranitar", Format: "gen9ubers"})
			So(names(out), ShouldResemble, []string{"random"})
		})

		Convey("Other generations never qualify", func() {
			out := s.Select(records, pool.Query{Species: "Garchomp", Format: "gen8ou"})
			So(out, ShouldBeEmpty)
		})

		Convey("An empty forme selects nothing", func() {
			So(s.Select(records, pool.Query{Format: "gen9ou"}), ShouldBeEmpty)
		})
	})

	Convey("Given cosmetic formes sharing one build", t, func() {
		records := []build.Record{
			rec("Gastrodon-East", "gen9ou", "east"),
			rec("Gastrodon", "gen9ou", "west"),
		}

		Convey("Aliases are included and the exact forme ranks first", func() {
			out := s.Select(records, pool.Query{Species: "Gastrodon", Format: "gen9ou"})
			So(names(out), ShouldResemble, []string{"west", "east"})

			out = s.Select(records, pool.Query{Species: "Gastrodon-East", Format: "gen9ou"})
			So(names(out), ShouldResemble, []string{"east", "west"})
		})
	})

	Convey("Given a transformed participant", t, func() {
		records := []build.Record{
			rec("Garchomp", "gen9ou", "chomp"),
			rec("Ditto", "gen9ou", "ditto"),
		}
		out := s.Select(records, pool.Query{Species: "Ditto", TransformedSpecies: "Garchomp", Format: "gen9ou"})
		So(names(out), ShouldResemble, []string{"ditto", "chomp"})
	})

	Convey("Given mechanically identical formats", t, func() {
		records := []build.Record{rec("Kingambit", "gen9vgc2024regg", "vgc")}

		Convey("A best-of-three ladder finds the single-game pool", func() {
			out := s.Select(records, pool.Query{Species: "Kingambit", Format: "gen9vgc2024reggbo3"})
			So(names(out), ShouldResemble, []string{"vgc"})
			So(s.Normalize("gen9vgc2024reggbo3"), ShouldEqual, "gen9vgc2024regg")
		})

		Convey("Battle stadium spellings share one family", func() {
			So(s.Normalize("gen9battlestadiumsinglesregg"), ShouldEqual, s.Normalize("gen9bssregg"))
		})

		Convey("Configured families extend the table", func() {
			custom := pool.New(d, pool.WithFamilies(map[string]string{"gen9ouladder": "gen9ou"}))
			So(custom.Normalize("gen9ouladder"), ShouldEqual, "gen9ou")
			So(s.Normalize("gen9ouladder"), ShouldEqual, "gen9ouladder")
		})
	})
}
