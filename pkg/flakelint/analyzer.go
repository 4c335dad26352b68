// Package flakelint provides static analysis checks for flake-prone test code.
//
// This analyzer inspects _test.go files and reports:
//   - time.Sleep calls, which tend to surface as TIMEOUT failures
//   - HTTP requests and dials to literal non-loopback hosts, which tend to
//     surface as NETWORK failures
//
// Usage:
//
//	go install github.com/example/testhealth/cmd/flakelint@latest
//	flakelint ./...
package flakelint

import (
	"go/ast"
	"go/constant"
	"go/types"
	"net"
	"net/url"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/example/testhealth/health/domain"
)

// Analyzer is the flakelint analyzer.
var Analyzer = &analysis.Analyzer{
	Name:     "flakelint",
	Doc:      "reports flake-prone patterns in tests",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// urlArg gives the index of the URL argument of net/http calls.
var urlArg = map[string]int{
	"Get":                   0,
	"Head":                  0,
	"Post":                  0,
	"PostForm":              0,
	"NewRequest":            1,
	"NewRequestWithContext": 2,
}

// addrArg gives the index of the address argument of net dials.
var addrArg = map[string]int{
	"Dial":        1,
	"DialTimeout": 1,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{(*ast.CallExpr)(nil)}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		if !inTestFile(pass, call) {
			return
		}

		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
		if !ok || fn.Pkg() == nil {
			return
		}

		switch fn.Pkg().Path() {
		case "time":
			if fn.Name() == "Sleep" {
				pass.Reportf(call.Pos(), "time.Sleep in a test tends to cause %s failures; wait on a condition instead", domain.CategoryTimeout)
			}
		case "net/http":
			if i, ok := urlArg[fn.Name()]; ok {
				checkURL(pass, call, i)
			}
		case "net":
			if i, ok := addrArg[fn.Name()]; ok {
				checkAddr(pass, call, i)
			}
		}
	})

	return nil, nil
}

func inTestFile(pass *analysis.Pass, n ast.Node) bool {
	return strings.HasSuffix(pass.Fset.File(n.Pos()).Name(), "_test.go")
}

// checkURL reports a constant URL argument that points at an external host.
func checkURL(pass *analysis.Pass, call *ast.CallExpr, idx int) {
	raw, ok := constString(pass, call, idx)
	if !ok {
		return
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	reportHost(pass, call, u.Hostname())
}

// checkAddr reports a constant host:port argument that points at an external host.
func checkAddr(pass *analysis.Pass, call *ast.CallExpr, idx int) {
	raw, ok := constString(pass, call, idx)
	if !ok {
		return
	}
	host, _, err := net.SplitHostPort(raw)
	if err != nil {
		return
	}
	reportHost(pass, call, host)
}

func reportHost(pass *analysis.Pass, call *ast.CallExpr, host string) {
	if host == "" || isLoopback(host) {
		return
	}
	pass.Reportf(call.Pos(), "network call to external host %q in a test tends to cause %s failures; use a local fake", host, domain.CategoryNetwork)
}

// constString extracts a constant string argument, following named constants.
func constString(pass *analysis.Pass, call *ast.CallExpr, idx int) (string, bool) {
	if idx >= len(call.Args) {
		return "", false
	}
	tv, ok := pass.TypesInfo.Types[call.Args[idx]]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}
	return constant.StringVal(tv.Value), true
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
