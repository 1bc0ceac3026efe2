// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"sol2rs/internal/config"
	"sol2rs/internal/lsp"
)

const lsName = "sol2rs"

var log = commonlog.GetLogger("sol2rs.lsp.main")

func main() {
	commonlog.Configure(1, nil)

	// diagnostics use the backend of the nearest project file
	cfg, err := config.Discover(".")
	if err != nil {
		log.Warningf("ignoring project file: %s", err)
		cfg = config.Default()
	}
	h := lsp.NewHandler(cfg.Backend)

	handler := protocol.Handler{
		Initialize:                     h.Initialize,
		Initialized:                    h.Initialized,
		Shutdown:                       h.Shutdown,
		SetTrace:                       h.SetTrace,
		TextDocumentDidOpen:            h.TextDocumentDidOpen,
		TextDocumentDidClose:           h.TextDocumentDidClose,
		TextDocumentDidChange:          h.TextDocumentDidChange,
		TextDocumentSemanticTokensFull: h.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, lsName, false)
	log.Infof("starting %s language server", lsName)
	if err := s.RunStdio(); err != nil {
		log.Errorf("language server stopped: %s", err)
		os.Exit(1)
	}
}
