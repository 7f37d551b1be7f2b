// chainindexctl inspects and mutates an on-disk chain index database. It is
// the operational companion to pkg/chainindex: every mutation goes through
// a LocalChain in memory and only the resulting ChangeSet is persisted.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klingnet-tech/klingnet-chainindex/config"
	"github.com/klingnet-tech/klingnet-chainindex/internal/chainstore"
	"github.com/klingnet-tech/klingnet-chainindex/internal/log"
	"github.com/klingnet-tech/klingnet-chainindex/internal/storage"
	"github.com/klingnet-tech/klingnet-chainindex/pkg/chainindex"
	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	dataDir := ""
	network := "mainnet"
	logLevel := ""

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--log-level" && len(args) > 1:
			logLevel = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--log-level="):
			logLevel = args[0][len("--log-level="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg := config.Default(config.NetworkType(network))
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	fileValues, err := config.LoadFile(cfg.ConfigFile())
	if err != nil {
		fatalf("load config file: %v", err)
	}
	if err := config.ApplyFileConfig(cfg, fileValues); err != nil {
		fatalf("apply config file: %v", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatalf("init logging: %v", err)
	}
	chainindex.CoinbaseMaturity = cfg.Chain.CoinbaseMaturity

	db, err := storage.NewBadger(cfg.IndexDir())
	if err != nil {
		fatalf("%v", err)
	}
	defer db.Close()
	store := chainstore.New(db)

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "init":
		cmdInit(store, cfg, cmdArgs)
	case "status":
		cmdStatus(store)
	case "blocks":
		cmdBlocks(store)
	case "insert":
		cmdInsert(store, cmdArgs)
	case "disconnect":
		cmdDisconnect(store, cmdArgs)
	case "recover":
		cmdRecover(store, cfg, cmdArgs)
	case "check":
		cmdCheck(store, cmdArgs)
	case "export":
		cmdExport(store)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

// cmdInit creates the index with the given genesis hash (or the configured
// one when omitted).
func cmdInit(store *chainstore.Store, cfg *config.Config, args []string) {
	genesisHex := cfg.Chain.GenesisHash
	if len(args) > 0 {
		genesisHex = args[0]
	}
	if genesisHex == "" {
		fatalf("init: no genesis hash given and none configured (chain.genesis)")
	}
	genesis, err := types.HexToHash(genesisHex)
	if err != nil {
		fatalf("init: %v", err)
	}
	if err := store.Initialize(genesis); err != nil {
		fatalf("init: %v", err)
	}
	fmt.Printf("index initialized with genesis %s\n", genesis)
}

func cmdStatus(store *chainstore.Store) {
	chain := loadChain(store)
	tip := chain.Tip()
	fmt.Printf("network tip:  height %d\n", tip.Height())
	fmt.Printf("tip hash:     %s\n", tip.Hash())
	fmt.Printf("genesis:      %s\n", chain.GenesisHash())
	fmt.Printf("checkpoints:  %d\n", len(chain.Blocks()))
}

func cmdBlocks(store *chainstore.Store) {
	chain := loadChain(store)
	blocks := chain.Blocks()
	heights := make([]uint32, 0, len(blocks))
	for h := range blocks {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	for _, h := range heights {
		fmt.Printf("%8d  %s\n", h, blocks[h])
	}
}

// cmdInsert records a single (height, hash) checkpoint.
func cmdInsert(store *chainstore.Store, args []string) {
	id := parseBlockIdArgs("insert", args)
	chain := loadChain(store)
	cs, err := chain.InsertBlock(id)
	if err != nil {
		fatalf("insert: %v", err)
	}
	persist(store, cs)
	if cs.IsEmpty() {
		fmt.Printf("block %d already present, nothing to do\n", id.Height)
		return
	}
	fmt.Printf("inserted block %d %s\n", id.Height, id.Hash)
}

// cmdDisconnect invalidates a checkpoint and everything above it.
func cmdDisconnect(store *chainstore.Store, args []string) {
	id := parseBlockIdArgs("disconnect", args)
	chain := loadChain(store)
	cs, err := chain.DisconnectFrom(id)
	if err != nil {
		fatalf("disconnect: %v", err)
	}
	persist(store, cs)
	if cs.IsEmpty() {
		fmt.Printf("block %d %s not in chain, nothing to do\n", id.Height, id.Hash)
		return
	}
	fmt.Printf("disconnected %d block(s) from height %d\n", len(cs), id.Height)
}

// cmdRecover rebuilds the index as a wallet-style recovery view: genesis
// plus a single checkpoint at the recovery height. History below that
// height is dropped from the store; the configured chain.birthday is the
// default height when only a hash is given.
func cmdRecover(store *chainstore.Store, cfg *config.Config, args []string) {
	var id chainindex.BlockId
	switch len(args) {
	case 1:
		if cfg.Chain.Birthday == 0 {
			fatalf("recover: no height given and no chain.birthday configured")
		}
		hash, err := types.HexToHash(args[0])
		if err != nil {
			fatalf("recover: bad hash: %v", err)
		}
		id = chainindex.BlockId{Height: cfg.Chain.Birthday, Hash: hash}
	case 2:
		id = parseBlockIdArgs("recover", args)
	default:
		fatalf("recover: want [height] <hash>")
	}
	if id.Height == 0 {
		fatalf("recover: recovery height must be above genesis")
	}

	chain := loadChain(store)
	recovered := chainindex.FromBlockId(chain.GenesisHash(), id)
	if err := store.Replace(recovered.InitialChangeset()); err != nil {
		fatalf("recover: %v", err)
	}
	fmt.Printf("index reset to recovery checkpoint %d %s\n", id.Height, id.Hash)
}

// cmdCheck asks the store-backed oracle whether a block is in the best
// chain as of the stored tip.
func cmdCheck(store *chainstore.Store, args []string) {
	id := parseBlockIdArgs("check", args)
	tip, err := store.GetChainTip()
	if err != nil {
		fatalf("check: %v", err)
	}
	inChain, err := store.IsBlockInChain(id, tip)
	if err != nil {
		fatalf("check: %v", err)
	}
	switch {
	case inChain == nil:
		fmt.Printf("undetermined: index has no verdict for height %d under tip %d\n", id.Height, tip.Height)
	case *inChain:
		fmt.Printf("block %d %s is in the best chain\n", id.Height, id.Hash)
	default:
		fmt.Printf("block %d %s is NOT in the best chain\n", id.Height, id.Hash)
	}
}

// cmdExport prints the chain's recreating changeset as JSON, the same shape
// FromChangeset accepts.
func cmdExport(store *chainstore.Store) {
	chain := loadChain(store)
	cs := chain.InitialChangeset()
	out := make(map[string]string, len(cs))
	for h, hash := range cs {
		if hash != nil {
			out[strconv.FormatUint(uint64(h), 10)] = hash.String()
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatalf("export: %v", err)
	}
}

func loadChain(store *chainstore.Store) *chainindex.LocalChain {
	chain, err := store.LoadChain()
	if err != nil {
		fatalf("%v (run 'chainindexctl init <genesis-hash>' first?)", err)
	}
	return chain
}

func persist(store *chainstore.Store, cs chainindex.ChangeSet) {
	if err := store.Append(cs); err != nil {
		fatalf("persist changeset: %v", err)
	}
}

func parseBlockIdArgs(cmd string, args []string) chainindex.BlockId {
	if len(args) != 2 {
		fatalf("%s: want <height> <hash>", cmd)
	}
	height, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fatalf("%s: bad height %q: %v", cmd, args[0], err)
	}
	hash, err := types.HexToHash(args[1])
	if err != nil {
		fatalf("%s: bad hash: %v", cmd, err)
	}
	return chainindex.BlockId{Height: uint32(height), Hash: hash}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "chainindexctl: "+format+"\n", args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `chainindexctl - inspect and mutate an on-disk chain index

Usage:
  chainindexctl [global flags] <command> [args]

Global flags:
  --datadir <dir>      data directory (default: platform-specific)
  --network <name>     mainnet or testnet (default: mainnet)
  --log-level <level>  debug, info, warn, error

Commands:
  init [genesis-hash]          create the index (hash may come from chain.genesis config)
  status                       show tip, genesis, and checkpoint count
  blocks                       list all (height, hash) checkpoints
  insert <height> <hash>       record a checkpoint
  disconnect <height> <hash>   invalidate a checkpoint and everything above it
  recover [height] <hash>      reset to genesis plus one recovery checkpoint
                               (height defaults to chain.birthday)
  check <height> <hash>        ask whether a block is in the best chain
  export                       dump the recreating changeset as JSON
`)
}
