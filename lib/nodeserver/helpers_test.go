// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nodeserver

import (
	"fmt"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/nodefmt/lib/nodelayout"
	"github.com/bureau-foundation/nodefmt/lib/testutil"
)

// fakeNpmScript handles "install" by creating node_modules and logging
// to installs.log next to the script, and "start" by running
// startBody with $signal set to the signal file name.
const fakeNpmScript = `here=$(dirname "$0")
case "$1" in
install)
	echo "install $*" >> "$here/installs.log"
	mkdir -p node_modules/formatter
	echo "added 1 package"
	;;
start)
	id=""
	for arg in "$@"; do
		case "$arg" in
		--node-server-instance-id=*) id="${arg#*=}" ;;
		esac
	done
	if [ -n "$id" ]; then signal="server-$id.port"; else signal="server.port"; fi
	echo "$$" > "$here/server.pid"
%s
	;;
esac
`

// servingBody writes port to the signal file and idles until TERM.
func servingBody(port string) string {
	return fmt.Sprintf(`	echo "listening on %[1]s"
	printf '%%s' "%[1]s" > "$signal"
	trap 'exit 0' TERM
	while true; do sleep 0.05; done`, port)
}

// hangingBody never writes the signal file.
const hangingBody = `	echo "booting"
	echo ready > "$here/booted"
	while true; do sleep 0.05; done`

type fakeNpm struct {
	bin       string
	locations nodelayout.Locations
}

func newFakeNpm(t *testing.T, startBody string) *fakeNpm {
	t.Helper()
	bin := t.TempDir()
	npm := testutil.WriteExecutable(t, bin, "npm", fmt.Sprintf(fakeNpmScript, startBody))
	return &fakeNpm{
		bin: bin,
		locations: nodelayout.Locations{
			BuildDir:       filepath.Join(t.TempDir(), "build"),
			NpmExecutable:  npm,
			NodeExecutable: filepath.Join(bin, "node"),
		},
	}
}

// installCount returns how many times install ran.
func (f *fakeNpm) installCount(t *testing.T) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.bin, "installs.log"))
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Count(string(data), "\n")
}

func serverPort(t *testing.T, server *httptest.Server) string {
	t.Helper()
	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	return parsed.Port()
}

func testConfig() nodelayout.Config {
	return nodelayout.Config{
		Manifest:    `{"name": "nodefmt-test", "scripts": {"start": "node serve.js"}}`,
		ServeScript: "// serve",
	}
}
