package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"voxelcraft.ai/worldstore/internal/config"
	"voxelcraft.ai/worldstore/internal/persistence/snapshot"
	"voxelcraft.ai/worldstore/internal/persistence/store"
	"voxelcraft.ai/worldstore/internal/persistence/worlddb"
)

var Config = new(struct {
	DB   string `long:"db" env:"WORLDSTORE_DB" default:"./data/craft.db" description:"World database path"`
	Auth string `long:"auth" env:"WORLDSTORE_AUTH_DB" description:"Auth database path (default: auth.db next to --db)"`
})

type ChunkArgs struct {
	P int `short:"p" description:"Chunk p coordinate"`
	Q int `short:"q" description:"Chunk q coordinate"`
}

func openDB() (*worlddb.DB, error) {
	if _, err := os.Stat(Config.DB); err != nil {
		return nil, err
	}
	return worlddb.Open(config.DB{Path: Config.DB, AuthPath: Config.Auth}, worlddb.Options{})
}

func openStore() (*store.SQLite, error) {
	if _, err := os.Stat(Config.DB); err != nil {
		return nil, err
	}
	return store.OpenSQLite(Config.DB, store.Options{AuthPath: Config.Auth})
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}

type voxelRow struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
	W int `json:"w"`
}

type cmdVoxels struct {
	ChunkArgs
	load func(db *worlddb.DB, p, q int, dst worlddb.MapSetter)
}

func (cmd *cmdVoxels) Execute([]string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	v := worlddb.Voxels{}
	cmd.load(db, cmd.P, cmd.Q, v)
	for _, row := range voxelRows(v) {
		printJSON(row)
	}
	return nil
}

func voxelRows(v worlddb.Voxels) []voxelRow {
	rows := make([]voxelRow, 0, len(v))
	for _, pos := range v.Sorted() {
		rows = append(rows, voxelRow{X: pos.X, Y: pos.Y, Z: pos.Z, W: v[pos]})
	}
	return rows
}

type cmdSigns struct{ ChunkArgs }

func (cmd *cmdSigns) Execute([]string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	var signs worlddb.SignList
	db.LoadSigns(cmd.P, cmd.Q, &signs)
	for _, s := range signs {
		printJSON(s)
	}
	return nil
}

type cmdKey struct{ ChunkArgs }

func (cmd *cmdKey) Execute([]string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	printJSON(map[string]int{"p": cmd.P, "q": cmd.Q, "key": db.GetKey(cmd.P, cmd.Q)})
	return nil
}

type cmdState struct{}

func (cmd *cmdState) Execute([]string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	s, ok := db.LoadState()
	if !ok {
		return fmt.Errorf("no saved player state")
	}
	printJSON(s)
	return nil
}

type cmdAuth struct{}

func (cmd *cmdAuth) Execute([]string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	user, _, ok := db.AuthGetSelected()
	printJSON(map[string]any{"selected": ok, "username": user})
	return nil
}

type cmdStats struct{}

func (cmd *cmdStats) Execute([]string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	counts, err := countRows(context.Background(), st)
	if err != nil {
		return err
	}
	fi, err := os.Stat(Config.DB)
	if err != nil {
		return err
	}
	out := map[string]any{
		"path": Config.DB,
		"size": humanize.Bytes(uint64(fi.Size())),
	}
	for table, n := range counts {
		out[table] = humanize.Comma(n)
	}
	printJSON(out)
	return nil
}

func countRows(ctx context.Context, st store.Store) (map[string]int64, error) {
	rows, err := st.Query(ctx, store.CountRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var table string
		var n int64
		if err := rows.Scan(&table, &n); err != nil {
			return nil, err
		}
		out[table] = n
	}
	return out, rows.Err()
}

type cmdExport struct {
	Out string `short:"o" long:"out" required:"true" description:"Snapshot file to write"`
}

func (cmd *cmdExport) Execute([]string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := snapshot.Export(context.Background(), st)
	if err != nil {
		return err
	}
	if err := snapshot.WriteSnapshot(cmd.Out, snap); err != nil {
		return err
	}
	printJSON(snap.Header)
	return nil
}

type cmdImport struct {
	In string `short:"i" long:"in" required:"true" description:"Snapshot file to load"`
}

func (cmd *cmdImport) Execute([]string) error {
	snap, err := snapshot.ReadSnapshot(cmd.In)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(Config.DB), 0o755); err != nil {
		return err
	}
	db, err := worlddb.Open(config.DB{Path: Config.DB, AuthPath: Config.Auth}, worlddb.Options{})
	if err != nil {
		return err
	}
	snapshot.Import(db, snap)
	if err := db.Close(); err != nil {
		return err
	}
	printJSON(snap.Header)
	return nil
}

func main() {
	log.SetOutput(os.Stderr)
	parser := flags.NewParser(Config, flags.Default)

	commands := []struct {
		name, short string
		data        any
	}{
		{"blocks", "List blocks of a chunk", &cmdVoxels{load: (*worlddb.DB).LoadBlocks}},
		{"lights", "List lights of a chunk", &cmdVoxels{load: (*worlddb.DB).LoadLights}},
		{"damage", "List non-zero block damage of a chunk", &cmdVoxels{load: (*worlddb.DB).LoadDamage}},
		{"signs", "List signs of a chunk", &cmdSigns{}},
		{"key", "Print the key of a chunk", &cmdKey{}},
		{"state", "Print the saved player state", &cmdState{}},
		{"auth", "Print the selected identity", &cmdAuth{}},
		{"stats", "Print table row counts and file size", &cmdStats{}},
		{"export", "Write the world to a snapshot file", &cmdExport{}},
		{"import", "Load a snapshot file into the world", &cmdImport{}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, "", c.data); err != nil {
			log.WithField("err", err).Fatal("add command")
		}
	}

	if _, err := parser.Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
