// gseaprep prepares expression datasets, phenotypes and gene set databases
// for the gsea enrichment engine, writes them into the engine's input layout
// and runs the engine on them.
//
// Subcommands:
//
//	standard   two-class analysis from a dataset and a .cls file
//	data-rank  per-sample analysis from a dataset alone
//	collapse   collapse a probe-level dataset to genes with a .chip file
//	version    print build information
package main

import (
	"os"

	"git.arvados.org/arvados.git/lib/cmd"
	"github.com/carbocation/gseaprep/compileinfo"
	"github.com/carbocation/gseaprep/manifest"
	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
)

var (
	handler = cmd.Multi(map[string]cmd.Handler{
		"version":   compileinfo.Command{},
		"-version":  compileinfo.Command{},
		"--version": compileinfo.Command{},

		"standard":  &runCommand{mode: manifest.Standard},
		"data-rank": &runCommand{mode: manifest.DataRank},
		"collapse":  &collapseCommand{},
	})
)

func main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		log.StandardLogger().Formatter = &log.TextFormatter{DisableTimestamp: true}
	}
	os.Exit(handler.RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
