package dex_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/okian/setres/internal/domain/dex"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBundledDex(t *testing.T) {
	Convey("Given the bundled dictionary", t, func() {
		d := dex.Bundled()

		Convey("Names resolve case and punctuation insensitively", func() {
			s, ok := d.Species("landorus therian")
			So(ok, ShouldBeTrue)
			So(s.Name, ShouldEqual, "Landorus-Therian")

			m, ok := d.Move("uturn")
			So(ok, ShouldBeTrue)
			So(m, ShouldEqual, "U-turn")

			i, ok := d.Item("HEAVY-DUTY BOOTS")
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, "Heavy-Duty Boots")
		})

		Convey("Unknown names are rejected", func() {
			_, ok := d.Ability("Huge Power")
			So(ok, ShouldBeFalse)
			_, ok = d.Move("")
			So(ok, ShouldBeFalse)
		})

		Convey("The unknown type sentinel is recognised", func() {
			v, ok := d.Type("???")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, dex.UnknownType)
		})

		Convey("Alias groups are symmetric", func() {
			So(d.Aliases("Gastrodon"), ShouldResemble, []string{"Gastrodon", "Gastrodon-East"})
			So(d.Aliases("gastrodoneast"), ShouldResemble, []string{"Gastrodon-East", "Gastrodon"})
			So(d.Aliases("Tyranitar"), ShouldResemble, []string{"Tyranitar"})
		})

		Convey("Gender locks are exposed", func() {
			tauros, _ := d.Species("Tauros")
			So(tauros.Gendered(), ShouldBeFalse)
			ttar, _ := d.Species("Tyranitar")
			So(ttar.Gendered(), ShouldBeTrue)
		})
	})
}

func TestDecode(t *testing.T) {
	Convey("Given YAML input", t, func() {
		Convey("When there are no species", func() {
			_, err := dex.Decode(strings.NewReader("moves: [Tackle]\n"))
			So(errors.Is(err, dex.ErrLoad), ShouldBeTrue)
		})

		Convey("When the YAML is malformed", func() {
			_, err := dex.Decode(strings.NewReader("species: [\n"))
			So(errors.Is(err, dex.ErrLoad), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := dex.Open("/non/existent/dex.yaml")
			So(errors.Is(err, dex.ErrLoad), ShouldBeTrue)
		})
	})
}

func TestGenMechanics(t *testing.T) {
	Convey("Generation rules", t, func() {
		So(dex.HasItems(1), ShouldBeFalse)
		So(dex.HasItems(2), ShouldBeTrue)
		So(dex.HasAbilities(2), ShouldBeFalse)
		So(dex.HasNatures(3), ShouldBeTrue)
		So(dex.MaxIV(2), ShouldEqual, 30)
		So(dex.MaxIV(9), ShouldEqual, 31)
		So(dex.DefaultEV(1), ShouldEqual, 252)
		So(dex.DefaultEV(8), ShouldEqual, 0)
		So(dex.MaxFormeSuffix(8), ShouldEqual, "-Gmax")
		So(dex.MaxFormeSuffix(9), ShouldEqual, "")
	})

	Convey("Format helpers", t, func() {
		So(dex.GenFromFormat("gen9ou"), ShouldEqual, 9)
		So(dex.GenFromFormat("gen8randombattle"), ShouldEqual, 8)
		So(dex.GenFromFormat("ou"), ShouldEqual, 0)
		So(dex.GenFromFormat("gen12ou"), ShouldEqual, 0)
		So(dex.IsRandomFormat("gen9randomdoublesbattle"), ShouldBeTrue)
		So(dex.IsRandomFormat("gen9ou"), ShouldBeFalse)
	})
}
