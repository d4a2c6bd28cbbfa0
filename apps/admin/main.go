package main

import (
	"context"
	"log"
	"os"

	"github.com/xenthrall/academy/core"
	"github.com/xenthrall/academy/core/report"
	"github.com/xenthrall/academy/core/school"
	logsvc "github.com/xenthrall/academy/services/logger"
	"github.com/xenthrall/academy/storage/database"
	boiledrepos "github.com/xenthrall/academy/storage/database/sqlboiler"
	sqlxrepos "github.com/xenthrall/academy/storage/database/sqlx"
)

var logger core.Logger

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	rbLogger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	rbLogger.Enable(!conf.Debug)
	logger = rbLogger

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(context.Background(), db, conf.Database.PingAttempts))

	// start CLI
	engine := conf.Database.Engine
	cli := commandLine{
		conf:      conf,
		db:        db,
		reportSvc: report.NewService(db, boiledrepos.NewReportRepository(engine), conf.Database.QueryTimeout),
		schoolSvc: school.NewService(sqlxrepos.NewSchoolRepository(db, engine)),
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
