package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/setres/internal/adapters/repository"
	"github.com/okian/setres/internal/domain/build"
)

const ttarSet = `Tyranitar @ Leftovers
Ability: Sand Stream
EVs: 252 HP / 4 Atk / 252 SpD
Careful Nature
- Stealth Rock
- Knock Off
`

const ttarPacked = "gen9ou]Sand|Tyranitar||assaultvest|sandstream|knockoff,rockslide,lowkick,stealthrock|Careful|252,,4,,252,|M|,0,,,,|S|50|200,,,,,Ghost"

func execute(stdin string, args ...string) (string, string, error) {
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseCommand(t *testing.T) {
	Convey("Given set text on stdin", t, func() {
		out, _, err := execute(ttarSet, "parse", "--format", "gen9ou")

		Convey("Then JSON records are printed", func() {
			So(err, ShouldBeNil)
			var recs []build.Record
			So(json.Unmarshal([]byte(out), &recs), ShouldBeNil)
			So(len(recs), ShouldEqual, 1)
			So(recs[0].Species, ShouldEqual, "Tyranitar")
			So(recs[0].Format, ShouldEqual, "gen9ou")
		})
	})

	Convey("Given text without a set", t, func() {
		out, _, err := execute("nothing here", "parse")
		So(err, ShouldBeNil)
		So(strings.TrimSpace(out), ShouldEqual, "[]")
	})
}

func TestUnpackAndExportCommands(t *testing.T) {
	Convey("Given a packed team", t, func() {
		Convey("When it is unpacked", func() {
			out, _, err := execute(ttarPacked, "unpack")
			So(err, ShouldBeNil)
			var recs []build.Record
			So(json.Unmarshal([]byte(out), &recs), ShouldBeNil)
			So(len(recs), ShouldEqual, 1)
			So(recs[0].Source, ShouldEqual, build.SourceTeam)
		})

		Convey("When it is exported directly", func() {
			out, _, err := execute(ttarPacked, "export", "--packed")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Tyranitar")
			So(out, ShouldContainSubstring, "- Knock Off")
		})

		Convey("When a broken line is mixed in", func() {
			out, errOut, err := execute(ttarPacked+"\nbroken", "unpack")
			So(err, ShouldBeNil)
			So(errOut, ShouldContainSubstring, "line 2")
			So(out, ShouldContainSubstring, "Tyranitar")
		})
	})

	Convey("Given JSON records", t, func() {
		out, _, err := execute(`[{"species":"Garchomp","item":"Choice Scarf","gen":9}]`, "export")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "Garchomp @ Choice Scarf")

		_, _, err = execute("not json", "export")
		So(err, ShouldNotBeNil)
	})
}

func TestImportCommand(t *testing.T) {
	Convey("Given set text and a cache path", t, func() {
		dsn := filepath.Join(t.TempDir(), "cache.db")

		Convey("When the text is imported as corpus", func() {
			out, _, err := execute(ttarSet, "import", "--dsn", dsn, "--format", "gen9ou")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "imported 1 records")

			Convey("Then the cache holds it under the corpus source", func() {
				ctx := context.Background()
				store, err := repository.OpenSQLite(ctx, dsn)
				So(err, ShouldBeNil)
				defer store.Close()
				recs, err := store.BySource(ctx, 9, build.SourceCorpus)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 1)
			})
		})

		Convey("When the source claims to be the server", func() {
			_, _, err := execute(ttarSet, "import", "--dsn", dsn, "--source", "server")
			So(err, ShouldNotBeNil)
		})

		Convey("When the source is not a known tag", func() {
			_, _, err := execute(ttarSet, "import", "--dsn", dsn, "--source", "made-up")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unknown source")
		})

		Convey("When the input holds nothing", func() {
			_, _, err := execute("", "import", "--dsn", dsn)
			So(errors.Is(err, errNoRecords), ShouldBeTrue)
		})
	})
}
