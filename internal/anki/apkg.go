package anki

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/kindledeck/internal/utils"
)

// An .apkg archive holds a SQLite collection database plus a media
// manifest. We ship no media, so the manifest is an empty JSON object.
const (
	collectionMember = "collection.anki2"
	mediaMember      = "media"
	collectionVer    = 11
)

// WritePackage serializes the package into .apkg bytes and a filename
// derived from the deck name.
func WritePackage(pkg *Package) (*Artifact, error) {
	tempDir, err := os.MkdirTemp("", "apkg-export-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, collectionMember)
	if err := writeCollection(dbPath, pkg); err != nil {
		return nil, err
	}

	collection, err := os.ReadFile(dbPath)
	if err != nil {
		return nil, fmt.Errorf("read collection database: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	members := []struct {
		name string
		data []byte
	}{
		{collectionMember, collection},
		{mediaMember, []byte("{}")},
	}
	for _, member := range members {
		w, err := zw.Create(member.name)
		if err != nil {
			return nil, fmt.Errorf("create archive member %s: %w", member.name, err)
		}
		if _, err := w.Write(member.data); err != nil {
			return nil, fmt.Errorf("write archive member %s: %w", member.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	return &Artifact{
		Filename: utils.DeckFilename(pkg.Deck.Name),
		Data:     buf.Bytes(),
	}, nil
}

// writeCollection creates the Anki collection database at path.
func writeCollection(path string, pkg *Package) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("create collection database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(collectionSchema); err != nil {
		return fmt.Errorf("create collection schema: %w", err)
	}

	if err := insertCol(db, pkg); err != nil {
		return err
	}
	if err := insertNotes(db, pkg); err != nil {
		return err
	}

	return nil
}

func insertCol(db *sql.DB, pkg *Package) error {
	models, err := json.Marshal(map[string]colModel{
		strconv.FormatInt(pkg.NoteType.ID, 10): newColModel(pkg),
	})
	if err != nil {
		return fmt.Errorf("marshal models: %w", err)
	}

	decks, err := json.Marshal(map[string]colDeck{
		"1":                                newColDeck(1, "Default"),
		strconv.FormatInt(pkg.Deck.ID, 10): newColDeck(pkg.Deck.ID, pkg.Deck.Name),
	})
	if err != nil {
		return fmt.Errorf("marshal decks: %w", err)
	}

	conf, err := json.Marshal(newColConf(pkg.NoteType.ID))
	if err != nil {
		return fmt.Errorf("marshal conf: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		 VALUES (1, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		baseModified, baseModified*1000, baseModified*1000, collectionVer,
		string(conf), string(models), string(decks), defaultDeckConf,
	)
	if err != nil {
		return fmt.Errorf("insert collection row: %w", err)
	}
	return nil
}

func insertNotes(db *sql.DB, pkg *Package) error {
	noteStmt, err := db.Prepare(
		`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '')`)
	if err != nil {
		return fmt.Errorf("prepare note insert: %w", err)
	}
	defer noteStmt.Close()

	cardStmt, err := db.Prepare(
		`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due,
		                    ivl, factor, reps, lapses, left, odue, odid, flags, data)
		 VALUES (?, ?, ?, 0, ?, ?, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return fmt.Errorf("prepare card insert: %w", err)
	}
	defer cardStmt.Close()

	// Card ids continue after the note id range so nothing collides.
	cardID := pkg.Deck.Notes[len(pkg.Deck.Notes)-1].ID + 1

	for i, note := range pkg.Deck.Notes {
		fields := joinFields(note.Fields)
		sortField := ""
		if len(note.Fields) > 0 {
			sortField = note.Fields[0]
		}

		tags := ""
		if len(note.Tags) > 0 {
			tags = " " + joinTags(note.Tags) + " "
		}

		if _, err := noteStmt.Exec(
			note.ID, note.GUID, pkg.NoteType.ID, note.Modified, note.USN,
			tags, fields, sortField, fieldChecksum(sortField),
		); err != nil {
			return fmt.Errorf("insert note %d: %w", note.ID, err)
		}

		if _, err := cardStmt.Exec(
			cardID, note.ID, pkg.Deck.ID, note.Modified, note.USN, i+1,
		); err != nil {
			return fmt.Errorf("insert card for note %d: %w", note.ID, err)
		}
		cardID++
	}

	return nil
}

// joinFields joins note fields with Anki's 0x1f separator.
func joinFields(fields []string) string {
	joined := ""
	for i, f := range fields {
		if i > 0 {
			joined += "\x1f"
		}
		joined += f
	}
	return joined
}

func joinTags(tags []string) string {
	joined := ""
	for i, tag := range tags {
		if i > 0 {
			joined += " "
		}
		joined += tag
	}
	return joined
}

// fieldChecksum computes Anki's sort-field checksum: the first 8 hex digits
// of the SHA1 of the field, as an integer.
func fieldChecksum(field string) int64 {
	sum := sha1.Sum([]byte(field))
	digest := fmt.Sprintf("%x", sum)
	value, _ := strconv.ParseInt(digest[:8], 16, 64)
	return value
}

const collectionSchema = `
CREATE TABLE col (
    id     integer primary key,
    crt    integer not null,
    mod    integer not null,
    scm    integer not null,
    ver    integer not null,
    dty    integer not null,
    usn    integer not null,
    ls     integer not null,
    conf   text not null,
    models text not null,
    decks  text not null,
    dconf  text not null,
    tags   text not null
);
CREATE TABLE notes (
    id    integer primary key,
    guid  text not null,
    mid   integer not null,
    mod   integer not null,
    usn   integer not null,
    tags  text not null,
    flds  text not null,
    sfld  integer not null,
    csum  integer not null,
    flags integer not null,
    data  text not null
);
CREATE TABLE cards (
    id     integer primary key,
    nid    integer not null,
    did    integer not null,
    ord    integer not null,
    mod    integer not null,
    usn    integer not null,
    type   integer not null,
    queue  integer not null,
    due    integer not null,
    ivl    integer not null,
    factor integer not null,
    reps   integer not null,
    lapses integer not null,
    left   integer not null,
    odue   integer not null,
    odid   integer not null,
    flags  integer not null,
    data   text not null
);
CREATE TABLE revlog (
    id      integer primary key,
    cid     integer not null,
    usn     integer not null,
    ease    integer not null,
    ivl     integer not null,
    lastIvl integer not null,
    factor  integer not null,
    time    integer not null,
    type    integer not null
);
CREATE TABLE graves (
    usn  integer not null,
    oid  integer not null,
    type integer not null
);
CREATE INDEX ix_notes_usn ON notes (usn);
CREATE INDEX ix_cards_usn ON cards (usn);
CREATE INDEX ix_revlog_usn ON revlog (usn);
CREATE INDEX ix_cards_nid ON cards (nid);
CREATE INDEX ix_cards_sched ON cards (did, queue, due);
CREATE INDEX ix_revlog_cid ON revlog (cid);
CREATE INDEX ix_notes_csum ON notes (csum);
`

// Collection JSON blobs

type colModel struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Type      int           `json:"type"`
	Mod       int64         `json:"mod"`
	USN       int           `json:"usn"`
	SortField int           `json:"sortf"`
	DeckID    int64         `json:"did"`
	Templates []colTemplate `json:"tmpls"`
	Fields    []colField    `json:"flds"`
	CSS       string        `json:"css"`
	LatexPre  string        `json:"latexPre"`
	LatexPost string        `json:"latexPost"`
	Required  [][3]any      `json:"req"`
	Tags      []string      `json:"tags"`
	Vers      []string      `json:"vers"`
}

type colTemplate struct {
	Name   string `json:"name"`
	Ord    int    `json:"ord"`
	QFmt   string `json:"qfmt"`
	AFmt   string `json:"afmt"`
	BQFmt  string `json:"bqfmt"`
	BAFmt  string `json:"bafmt"`
	DeckID *int64 `json:"did"`
}

type colField struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Sticky bool     `json:"sticky"`
	RTL    bool     `json:"rtl"`
	Font   string   `json:"font"`
	Size   int      `json:"size"`
	Media  []string `json:"media"`
}

type colDeck struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Mod              int64  `json:"mod"`
	USN              int    `json:"usn"`
	LrnToday         [2]int `json:"lrnToday"`
	RevToday         [2]int `json:"revToday"`
	NewToday         [2]int `json:"newToday"`
	TimeToday        [2]int `json:"timeToday"`
	Dyn              int    `json:"dyn"`
	ExtendNew        int    `json:"extendNew"`
	ExtendRev        int    `json:"extendRev"`
	Conf             int    `json:"conf"`
	Desc             string `json:"desc"`
	Collapsed        bool   `json:"collapsed"`
	BrowserCollapsed bool   `json:"browserCollapsed"`
}

type colConf struct {
	NextPos       int    `json:"nextPos"`
	EstTimes      bool   `json:"estTimes"`
	ActiveDecks   []int  `json:"activeDecks"`
	SortType      string `json:"sortType"`
	TimeLim       int    `json:"timeLim"`
	SortBackwards bool   `json:"sortBackwards"`
	AddToCur      bool   `json:"addToCur"`
	CurDeck       int    `json:"curDeck"`
	NewBury       bool   `json:"newBury"`
	NewSpread     int    `json:"newSpread"`
	DueCounts     bool   `json:"dueCounts"`
	CurModel      string `json:"curModel"`
	CollapseTime  int    `json:"collapseTime"`
}

const defaultCSS = `.card {
 font-family: arial;
 font-size: 20px;
 text-align: center;
 color: black;
 background-color: white;
}`

const defaultLatexPre = `\documentclass[12pt]{article}
\special{papersize=3in,5in}
\usepackage[utf8]{inputenc}
\usepackage{amssymb,amsmath}
\pagestyle{empty}
\setlength{\parindent}{0in}
\begin{document}
`

const defaultLatexPost = `\end{document}`

// defaultDeckConf is Anki's standard scheduling configuration; nothing in
// the export depends on scheduling, so the defaults are carried verbatim.
const defaultDeckConf = `{"1": {"id": 1, "name": "Default", "mod": 0, "usn": 0, "maxTaken": 60, "autoplay": true, "timer": 0, "replayq": true, "new": {"bury": true, "delays": [1, 10], "initialFactor": 2500, "ints": [1, 4, 7], "order": 1, "perDay": 20, "separate": true}, "rev": {"bury": true, "ease4": 1.3, "fuzz": 0.05, "ivlFct": 1, "maxIvl": 36500, "minSpace": 1, "perDay": 100}, "lapse": {"delays": [10], "leechAction": 0, "leechFails": 8, "minInt": 1, "mult": 0}, "dyn": false, "collapsed": false}}`

func newColModel(pkg *Package) colModel {
	model := colModel{
		ID:        pkg.NoteType.ID,
		Name:      pkg.NoteType.Name,
		Type:      0,
		Mod:       baseModified,
		USN:       -1,
		SortField: 0,
		DeckID:    pkg.Deck.ID,
		CSS:       defaultCSS,
		LatexPre:  defaultLatexPre,
		LatexPost: defaultLatexPost,
		// The single template requires the first (Front) field.
		Required: [][3]any{{0, "all", []int{0}}},
		Tags:     []string{},
		Vers:     []string{},
	}

	for i, field := range pkg.NoteType.Fields {
		model.Fields = append(model.Fields, colField{
			Name:  field.Name,
			Ord:   i,
			Font:  "Arial",
			Size:  20,
			Media: []string{},
		})
	}

	for i, tmpl := range pkg.NoteType.Templates {
		model.Templates = append(model.Templates, colTemplate{
			Name: tmpl.Name,
			Ord:  i,
			QFmt: tmpl.QuestionFormat,
			AFmt: tmpl.AnswerFormat,
		})
	}

	return model
}

func newColDeck(id int64, name string) colDeck {
	return colDeck{
		ID:        id,
		Name:      name,
		Mod:       baseModified,
		USN:       -1,
		LrnToday:  [2]int{0, 0},
		RevToday:  [2]int{0, 0},
		NewToday:  [2]int{0, 0},
		TimeToday: [2]int{0, 0},
		Conf:      1,
	}
}

func newColConf(modelID int64) colConf {
	return colConf{
		NextPos:      1,
		EstTimes:     true,
		ActiveDecks:  []int{1},
		SortType:     "noteFld",
		AddToCur:     true,
		CurDeck:      1,
		NewBury:      true,
		DueCounts:    true,
		CurModel:     strconv.FormatInt(modelID, 10),
		CollapseTime: 1200,
	}
}
