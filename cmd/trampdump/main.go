package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/wippyai/trampoline"
	"github.com/wippyai/trampoline/abi"
)

func main() {
	var (
		dir         = flag.String("dir", "native", "Trampoline direction: native (wrap a native function) or host (wrap a host function)")
		ret         = flag.String("ret", "void", "Return kind")
		params      = flag.String("params", "", "Parameter kinds (comma-separated)")
		this        = flag.String("this", "", "Receiver kind (pointer-like, empty for none)")
		sret        = flag.Bool("sret", false, "Structure return through a hidden slot")
		nullRet     = flag.Bool("nullable-return", false, "Nullable return")
		nullThis    = flag.Bool("nullable-this", false, "Nullable receiver")
		nullParams  = flag.Bool("nullable-params", false, "Nullable pointer-like parameters")
		table       = flag.Uint64("table", 0x10000, "Conversion table base address (diagnostic value)")
		hexOnly     = flag.Bool("hex", false, "Print the code bytes only")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *interactive {
		if err := runInteractive(uintptr(*table)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := dump(*dir, *ret, *params, *this, options(*sret, *nullRet, *nullThis, *nullParams), uintptr(*table), *hexOnly); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func options(sret, nullRet, nullThis, nullParams bool) trampoline.Options {
	return trampoline.Options{
		StructureReturn: sret,
		NullableReturn:  nullRet,
		NullableThis:    nullThis,
		NullableParams:  nullParams,
	}
}

func dump(dir, retStr, paramsStr, thisStr string, opts trampoline.Options, table uintptr, hexOnly bool) error {
	ret, err := parseKind(retStr)
	if err != nil {
		return err
	}
	params, err := parseKinds(paramsStr)
	if err != nil {
		return err
	}
	if thisStr != "" {
		t, err := parseKind(thisStr)
		if err != nil {
			return err
		}
		opts.This = t
	}

	g, err := trampoline.New(trampoline.Config{Table: abi.Table{Base: table}})
	if err != nil {
		return err
	}

	var p *trampoline.Preview
	switch dir {
	case "native":
		p, err = g.PreviewNativeWrapper(trampoline.Direct(0x1000), ret, opts, params...)
	case "host":
		p, err = g.PreviewHostFunctionWrapper(ret, opts, params...)
	default:
		return fmt.Errorf("unknown direction %q (want native or host)", dir)
	}
	if err != nil {
		return err
	}

	if hexOnly {
		fmt.Println(hexDump(p.Code, 16))
		return nil
	}

	fmt.Printf("Direction: %s\n", dir)
	fmt.Printf("Signature: %s\n", signatureString(dir, retStr, paramsStr, thisStr, opts))
	fmt.Printf("Code: %d bytes\n\n", len(p.Code))
	for _, line := range p.Listing {
		if strings.HasSuffix(line, ":") {
			fmt.Println(line)
		} else {
			fmt.Println("\t" + line)
		}
	}
	fmt.Println()
	fmt.Println(hexDump(p.Code, 16))
	return nil
}

func signatureString(dir, ret, params, this string, opts trampoline.Options) string {
	var b strings.Builder
	b.WriteString(ret)
	b.WriteString(" (")
	if this != "" {
		b.WriteString("this " + this)
		if params != "" {
			b.WriteString(", ")
		}
	}
	b.WriteString(params)
	b.WriteString(")")
	if opts.StructureReturn {
		b.WriteString(" sret")
	}
	return b.String()
}

func parseKinds(s string) ([]trampoline.Type, error) {
	if s == "" {
		return nil, nil
	}
	var out []trampoline.Type
	for _, name := range strings.Split(s, ",") {
		k, err := parseKind(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

var kindNames = map[string]trampoline.Type{
	"void":    trampoline.KindVoid,
	"bool":    trampoline.KindBool,
	"int8":    trampoline.KindInt8,
	"uint8":   trampoline.KindUint8,
	"int16":   trampoline.KindInt16,
	"uint16":  trampoline.KindUint16,
	"int32":   trampoline.KindInt32,
	"uint32":  trampoline.KindUint32,
	"bin64":   trampoline.KindBin64,
	"f32":     trampoline.KindFloat32,
	"f64":     trampoline.KindFloat64,
	"f64raw":  trampoline.KindFloatAsInt64,
	"ansi":    trampoline.KindStringAnsi,
	"utf8":    trampoline.KindStringUtf8,
	"utf16":   trampoline.KindStringUtf16,
	"buffer":  trampoline.KindBuffer,
	"value":   trampoline.KindValue,
	"pointer": trampoline.RawPointer,
}

func parseKind(name string) (trampoline.Type, error) {
	if k, ok := kindNames[name]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("unknown kind %q", name)
}

func hexDump(code []byte, width int) string {
	var b strings.Builder
	for i := 0; i < len(code); i += width {
		end := i + width
		if end > len(code) {
			end = len(code)
		}
		fmt.Fprintf(&b, "%04x:", i)
		for _, c := range code[i:end] {
			fmt.Fprintf(&b, " %02x", c)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
