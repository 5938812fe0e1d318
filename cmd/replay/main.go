package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"voxelcraft.ai/worldstore/internal/config"
	"voxelcraft.ai/worldstore/internal/logging"
	persistlog "voxelcraft.ai/worldstore/internal/persistence/log"
	"voxelcraft.ai/worldstore/internal/persistence/worlddb"
	"voxelcraft.ai/worldstore/internal/persistence/writeq"
)

type options struct {
	DB          string   `long:"db" env:"WORLDSTORE_DB" required:"true" description:"World database to replay into"`
	Journal     string   `long:"journal" env:"WORLDSTORE_JOURNAL" description:"Directory of commands-*.jsonl.zst files"`
	Files       []string `long:"file" description:"Journal file to replay (repeatable; replaces --journal)"`
	CommitEvery int      `long:"commit-every" default:"10000" description:"Commit after this many replayed commands"`
	LogLevel    string   `long:"log-level" default:"info" description:"Logging level"`
}

type result struct {
	Files    int
	Commands int
	Skipped  int
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if err := logging.Init(config.Log{Level: opts.LogLevel, Format: "text"}); err != nil {
		log.WithField("err", err).Fatal("logging")
	}

	files := opts.Files
	if len(files) == 0 {
		if opts.Journal == "" {
			log.Fatal("one of --journal or --file is required")
		}
		var err error
		if files, err = persistlog.ListJournalFiles(opts.Journal); err != nil {
			log.WithField("err", err).Fatal("list journal")
		}
	}

	db, err := worlddb.Open(config.DB{Path: opts.DB}, worlddb.Options{Logger: logging.Component("worlddb")})
	if err != nil {
		log.WithField("err", err).Fatal("open world database")
	}
	res, err := replay(db, files, opts.CommitEvery)
	if cerr := db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	fields := log.Fields{"files": res.Files, "commands": res.Commands, "skipped": res.Skipped}
	if err != nil {
		log.WithFields(fields).WithField("err", err).Fatal("replay failed")
	}
	log.WithFields(fields).Info("replay complete")
}

// replay enqueues every command of files into db in order, committing every
// commitEvery commands and once at the end.
func replay(db *worlddb.DB, files []string, commitEvery int) (result, error) {
	var res result
	sinceCommit := 0
	for _, path := range files {
		err := persistlog.ReadCommands(path, func(c writeq.Command) error {
			if err := db.Enqueue(c); err != nil {
				res.Skipped++
				return nil
			}
			res.Commands++
			sinceCommit++
			if commitEvery > 0 && sinceCommit >= commitEvery {
				db.Commit()
				sinceCommit = 0
			}
			return nil
		})
		if err != nil {
			return res, err
		}
		res.Files++
		log.WithField("file", path).Debug("replayed")
	}
	db.Commit()
	return res, nil
}
