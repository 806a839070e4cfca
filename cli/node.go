package cli

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/vrecan/death/v3"

	"github.com/Vetrovec/chainee/blockchain"
	"github.com/Vetrovec/chainee/config"
)

const introMessage = `
   _____ _    _          _____ _   _ ______ ______
  / ____| |  | |   /\   |_   _| \ | |  ____|  ____|
 | |    | |__| |  /  \    | | |  \| | |__  | |__
 | |    |  __  | / /\ \   | | | . ` + "`" + ` |  __| |  __|
 | |____| |  | |/ ____ \ _| |_| |\  | |____| |____
  \_____|_|  |_/_/    \_\_____|_| \_|______|______|

Type in 'help' for list of available commands`

const helpMessage = `List of commands:
getaccount <address>    Prints balance and nonce
getblock <hash>         Prints content of a block
getblockcount           Prints number of blocks in chain
getblockhash <index>    Prints hash of a block by index
getinfo                 Prints info about blockchain state
gettransaction <id>     Prints content of transaction
printchain              Walks the chain from tip to genesis
help                    Prints help
stop                    Stops node
submitblock <data>      Pushes block into chain`

// nodeCommand handles one shell command against the running chain.
type nodeCommand func(chain *blockchain.Blockchain, args []string) error

var nodeCommands = map[string]nodeCommand{
	"getaccount":     getAccountHandler,
	"getblock":       getBlockHandler,
	"getblockcount":  getBlockCountHandler,
	"getblockhash":   getBlockHashHandler,
	"getinfo":        getInfoHandler,
	"gettransaction": getTransactionHandler,
	"printchain":     printChainHandler,
	"help":           helpHandler,
	"stop":           stopHandler,
	"submitblock":    submitBlockHandler,
}

// startNode loads the chain from datadir, bootstraps genesis on an empty
// chain and serves the interactive command shell until stop or a signal.
func (cli *CommandLine) startNode(datadir string, debug bool) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if debug {
		logger = logger.Level(zerolog.DebugLevel)
	}

	cfg, err := config.Load(datadir)
	if err != nil {
		fmt.Println("Config in data dir not found. Quitting...")
		logger.Debug().Err(err).Msg("config load failed")
		os.Exit(1)
	}

	chain := blockchain.NewBlockchain(cfg.DataDir)
	if err := chain.Load(); err != nil {
		logger.Error().Err(err).Msg("chain load failed")
		os.Exit(1)
	}
	logger.Info().Uint32("blocks", chain.BlockCount).Str("datadir", cfg.DataDir).Msg("chain loaded")

	if chain.BlockCount < 1 {
		genesis, err := blockchain.NewGenesisBlock(cfg.GenesisBeneficiary, cfg.GenesisTimestamp)
		if err != nil {
			logger.Error().Err(err).Msg("genesis block invalid")
			os.Exit(1)
		}
		if err := chain.AddBlock(genesis); err != nil {
			logger.Error().Err(err).Msg("genesis append failed")
			os.Exit(1)
		}
		logger.Info().Str("hash", genesis.Hash()).Msg("genesis block created")
	}

	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM)
	go d.WaitForDeathWithFunc(func() {
		if err := chain.Save(); err != nil {
			logger.Error().Err(err).Msg("chain save failed")
			os.Exit(1)
		}
		logger.Info().Msg("chain saved")
		os.Exit(0)
	})

	fmt.Println(introMessage)
	scanner := bufio.NewScanner(os.Stdin)
	// Serialized blocks arrive as one hex line and can get large.
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		command := strings.Fields(scanner.Text())
		if len(command) == 0 {
			continue
		}
		handler, ok := nodeCommands[strings.ToLower(command[0])]
		if !ok {
			fmt.Println("Unrecognized command")
			continue
		}
		if err := handler(chain, command[1:]); err != nil {
			fmt.Println(err)
			logger.Debug().Err(err).Str("command", command[0]).Msg("command failed")
		}
	}
}

func getAccountHandler(chain *blockchain.Blockchain, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: getaccount <address>")
	}
	printJSON(blockchain.Account{
		Balance: chain.GetBalance(args[0]),
		Nonce:   chain.GetNonce(args[0]),
	})
	return nil
}

func getBlockHandler(chain *blockchain.Blockchain, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: getblock <hash>")
	}
	block := chain.GetBlock(args[0])
	if block == nil {
		return fmt.Errorf("block not found")
	}
	printJSON(block)
	return nil
}

func getBlockCountHandler(chain *blockchain.Blockchain, args []string) error {
	fmt.Println(chain.BlockCount)
	return nil
}

func getBlockHashHandler(chain *blockchain.Blockchain, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: getblockhash <index>")
	}
	number, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("parse index: %w", err)
	}
	hash, ok := chain.GetBlockHash(uint32(number))
	if !ok {
		return fmt.Errorf("block not found")
	}
	fmt.Println(hash)
	return nil
}

func getInfoHandler(chain *blockchain.Blockchain, args []string) error {
	info := struct {
		Blocks     uint32 `json:"blocks"`
		LatestHash string `json:"latest_hash"`
	}{Blocks: chain.BlockCount}
	if latest := chain.GetLatestBlock(); latest != nil {
		info.LatestHash = latest.Hash()
	}
	printJSON(info)
	return nil
}

func getTransactionHandler(chain *blockchain.Blockchain, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: gettransaction <id>")
	}
	tx := chain.GetTransaction(args[0])
	if tx == nil {
		return fmt.Errorf("transaction not found")
	}
	printJSON(tx)
	return nil
}

func printChainHandler(chain *blockchain.Blockchain, args []string) error {
	iter := chain.Iterator()
	for block := iter.Next(); block != nil; block = iter.Next() {
		fmt.Printf("Number: %d Hash: %s Parent: %s Transactions: %d\n",
			block.Number, block.Hash(), block.ParentHash, len(block.Transactions))
	}
	return nil
}

func helpHandler(chain *blockchain.Blockchain, args []string) error {
	fmt.Println(helpMessage)
	return nil
}

func stopHandler(chain *blockchain.Blockchain, args []string) error {
	if err := chain.Save(); err != nil {
		return err
	}
	os.Exit(0)
	return nil
}

func submitBlockHandler(chain *blockchain.Blockchain, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: submitblock <data>")
	}
	raw, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("decode block: %w", err)
	}
	block, err := blockchain.DeserializeBlock(raw)
	if err != nil {
		return err
	}
	return chain.AddBlock(block)
}
