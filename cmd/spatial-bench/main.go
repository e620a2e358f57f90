package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/geojson/geometry"

	"github.com/tidwall/spatial"
	"github.com/tidwall/spatial/rindex"
)

var (
	nodes    = 100000
	requests = 100000
	seed     = int64(0)
	world    = 1000.0
	backend  = "quad"
	capacity = spatial.DefaultCapacity
	quiet    = false
	csv      = false
	allTests = "INSERT,QUERY,NEAREST,UPDATE,RECALC"
	tests    = allTests
)

func showHelp() bool {
	fmt.Fprintf(os.Stdout, "spatial-bench\n\n")
	fmt.Fprintf(os.Stdout, "Usage: spatial-bench [-i <index>] [-n <nodes>] [-r <requests>]\n\n")
	fmt.Fprintf(os.Stdout, " -i <index>     Index to benchmark, quad or flat (default: %s)\n", backend)
	fmt.Fprintf(os.Stdout, " -n <nodes>     Number of nodes to index (default: %d)\n", nodes)
	fmt.Fprintf(os.Stdout, " -r <requests>  Requests per test (default: %d)\n", requests)
	fmt.Fprintf(os.Stdout, " -s <seed>      Random seed (default: current time)\n")
	fmt.Fprintf(os.Stdout, " -w <size>      Width and height of the world (default: %v)\n", world)
	fmt.Fprintf(os.Stdout, " -C <capacity>  Residents per leaf before splitting (default: %d)\n", capacity)
	fmt.Fprintf(os.Stdout, " -t <tests>     Only run the comma separated list of tests. The test\n")
	fmt.Fprintf(os.Stdout, "                names are the same as the ones produced as output.\n")
	fmt.Fprintf(os.Stdout, " -q             Quiet. Just show rate values\n")
	fmt.Fprintf(os.Stdout, " --csv          Output in CSV format.\n")
	fmt.Fprintf(os.Stdout, "\n")
	return false
}

func parseArgs() bool {
	defer func() {
		if v := recover(); v != nil {
			if v, ok := v.(string); ok && v == "bad arg" {
				showHelp()
			}
		}
	}()

	args := os.Args[1:]
	readArg := func(arg string) string {
		if len(args) == 0 {
			panic("bad arg")
		}
		var narg = args[0]
		args = args[1:]
		return narg
	}
	readIntArg := func(arg string) int {
		n, err := strconv.ParseInt(readArg(arg), 10, 64)
		if err != nil {
			panic("bad arg")
		}
		return int(n)
	}
	readFloatArg := func(arg string) float64 {
		n, err := strconv.ParseFloat(readArg(arg), 64)
		if err != nil {
			panic("bad arg")
		}
		return n
	}
	badArg := func(arg string) bool {
		fmt.Fprintf(os.Stderr, "Unrecognized option or bad number of args for: '%s'\n", arg)
		return false
	}

	for len(args) > 0 {
		arg := readArg("")
		if arg == "--help" || arg == "-?" {
			return showHelp()
		}
		switch arg {
		default:
			return badArg(arg)
		case "-i":
			backend = readArg(arg)
			if backend != "quad" && backend != "flat" {
				return badArg(arg)
			}
		case "-n":
			nodes = readIntArg(arg)
			if nodes <= 0 {
				nodes = 1
			}
		case "-r":
			requests = readIntArg(arg)
			if requests <= 0 {
				requests = 0
			}
		case "-s":
			seed = int64(readIntArg(arg))
		case "-w":
			world = readFloatArg(arg)
			if world <= 0 {
				world = 1
			}
		case "-C":
			capacity = readIntArg(arg)
			if capacity < 1 {
				capacity = 1
			}
		case "-t":
			tests = readArg(arg)
		case "-q":
			quiet = true
		case "--csv":
			csv = true
		}
	}
	return true
}

func report(name string, n int, elapsed time.Duration) {
	rate := float64(n) / elapsed.Seconds()
	switch {
	case csv:
		fmt.Printf("\"%s\",\"%.2f\"\n", name, rate)
	case quiet:
		fmt.Printf("%s: %.2f\n", name, rate)
	default:
		fmt.Printf("%s: %.2f ops per second (%d ops in %.2fs)\n",
			name, rate, n, elapsed.Seconds())
	}
}

func wants(name string) bool {
	for _, test := range strings.Split(tests, ",") {
		if strings.EqualFold(strings.TrimSpace(test), name) {
			return true
		}
	}
	return false
}

func main() {
	if !parseArgs() {
		return
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	if !quiet && !csv {
		fmt.Printf("index=%s nodes=%d requests=%d seed=%d world=%v\n\n",
			backend, nodes, requests, seed, world)
	}

	area := geometry.Rect{
		Min: geometry.Point{X: 0, Y: 0},
		Max: geometry.Point{X: world, Y: world},
	}
	layout := &spatial.MemLayout{}
	ids := make([]string, nodes)
	for i := 0; i < nodes; i++ {
		ids[i] = "n" + strconv.Itoa(i)
		layout.Set(ids[i], geometry.Point{
			X: rng.Float64() * world,
			Y: rng.Float64() * world,
		})
	}

	var ix spatial.Spatial
	switch backend {
	case "quad":
		ix = spatial.New(layout, area).SetCapacity(capacity)
	case "flat":
		ix = rindex.New(layout)
	}

	if wants("INSERT") {
		start := time.Now()
		for _, id := range ids {
			ix.Insert(id)
		}
		report("INSERT", len(ids), time.Since(start))
	} else {
		ix.Recalculate(ids)
	}

	if wants("QUERY") {
		start := time.Now()
		for i := 0; i < requests; i++ {
			x := rng.Float64() * world
			y := rng.Float64() * world
			w := rng.Float64() * world / 10
			ix.Query(geometry.Rect{
				Min: geometry.Point{X: x, Y: y},
				Max: geometry.Point{X: x + w, Y: y + w},
			})
		}
		report("QUERY", requests, time.Since(start))
	}

	if wants("NEAREST") {
		start := time.Now()
		for i := 0; i < requests; i++ {
			ix.Nearest(rng.Float64()*world, rng.Float64()*world)
		}
		report("NEAREST", requests, time.Since(start))
	}

	if wants("UPDATE") {
		start := time.Now()
		for i := 0; i < requests; i++ {
			id := ids[rng.Intn(len(ids))]
			layout.Set(id, geometry.Point{
				X: rng.Float64() * world,
				Y: rng.Float64() * world,
			})
			ix.Update(id)
		}
		report("UPDATE", requests, time.Since(start))
	}

	if wants("RECALC") {
		recalcs := requests / 1000
		if recalcs < 1 {
			recalcs = 1
		}
		start := time.Now()
		for i := 0; i < recalcs; i++ {
			ix.Recalculate(ids)
		}
		report("RECALC", recalcs, time.Since(start))
	}
}
