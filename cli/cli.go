package cli

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Vetrovec/chainee/blockchain"
	"github.com/Vetrovec/chainee/wallet"
)

// CommandLine dispatches the node and the offline helper tools.
type CommandLine struct{}

func (cli *CommandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println(" startnode -datadir DIR [-debug] - Start the node shell")
	fmt.Println(" createblock -number N -parent HASH -beneficiary ADDRESS -target T -nonce N [-timestamp T] [TX...] - Create a serialized block")
	fmt.Println(" createtransaction -nonce N -out {\"address\":amount,...} -privatekey KEY - Create a signed serialized transaction")
	fmt.Println(" decodeblock DATA - Decode a serialized block")
	fmt.Println(" decodetransaction DATA - Decode a serialized transaction")
	fmt.Println(" generateaddress [-seed SEED] - Generate a new address")
	fmt.Println(" recover [-hex] MESSAGE SIGNATURE - Recover the address behind a signature")
	fmt.Println(" sha3 [-hex] INPUT - Calculate a sha3 hash")
	fmt.Println(" sign [-hex] -privatekey KEY MESSAGE - Sign a message")
	fmt.Println(" createwallet -datadir DIR - Create a new key in the keystore")
	fmt.Println(" listaddresses -datadir DIR - List keystore addresses")
}

// Run parses os.Args and executes the selected subcommand.
func (cli *CommandLine) Run() {
	if len(os.Args) < 2 {
		cli.printUsage()
		os.Exit(1)
	}

	startNodeCmd := flag.NewFlagSet("startnode", flag.ExitOnError)
	createBlockCmd := flag.NewFlagSet("createblock", flag.ExitOnError)
	createTransactionCmd := flag.NewFlagSet("createtransaction", flag.ExitOnError)
	decodeBlockCmd := flag.NewFlagSet("decodeblock", flag.ExitOnError)
	decodeTransactionCmd := flag.NewFlagSet("decodetransaction", flag.ExitOnError)
	generateAddressCmd := flag.NewFlagSet("generateaddress", flag.ExitOnError)
	recoverCmd := flag.NewFlagSet("recover", flag.ExitOnError)
	sha3Cmd := flag.NewFlagSet("sha3", flag.ExitOnError)
	signCmd := flag.NewFlagSet("sign", flag.ExitOnError)
	createWalletCmd := flag.NewFlagSet("createwallet", flag.ExitOnError)
	listAddressesCmd := flag.NewFlagSet("listaddresses", flag.ExitOnError)

	startNodeDatadir := startNodeCmd.String("datadir", ".", "Path to data directory")
	startNodeDebug := startNodeCmd.Bool("debug", false, "Log command failures with their error chain")

	createBlockNumber := createBlockCmd.Uint("number", 0, "Block number")
	createBlockParent := createBlockCmd.String("parent", "", "Parent block hash")
	createBlockBeneficiary := createBlockCmd.String("beneficiary", "", "Beneficiary address")
	createBlockTarget := createBlockCmd.Uint("target", 0, "Packed difficulty target")
	createBlockTimestamp := createBlockCmd.Uint("timestamp", 0, "Unix seconds, defaults to now")
	createBlockNonce := createBlockCmd.Uint("nonce", 0, "Proof of work nonce")

	createTransactionNonce := createTransactionCmd.Uint("nonce", 0, "Account transaction nonce")
	createTransactionOut := createTransactionCmd.String("out", "", `Outputs as {"address":amount,...}`)
	createTransactionKey := createTransactionCmd.String("privatekey", "", "Private key to sign with")

	generateAddressSeed := generateAddressCmd.String("seed", "", "Derive the key from a seed instead of random bytes")

	recoverHex := recoverCmd.Bool("hex", false, "Treat the message as hex instead of text")
	sha3Hex := sha3Cmd.Bool("hex", false, "Treat the input as hex instead of text")
	signHex := signCmd.Bool("hex", false, "Treat the message as hex instead of text")
	signKey := signCmd.String("privatekey", "", "Private key to sign with")

	createWalletDatadir := createWalletCmd.String("datadir", ".", "Path to data directory")
	listAddressesDatadir := listAddressesCmd.String("datadir", ".", "Path to data directory")

	var err error
	switch os.Args[1] {
	case "startnode":
		err = startNodeCmd.Parse(os.Args[2:])
	case "createblock":
		err = createBlockCmd.Parse(os.Args[2:])
	case "createtransaction":
		err = createTransactionCmd.Parse(os.Args[2:])
	case "decodeblock":
		err = decodeBlockCmd.Parse(os.Args[2:])
	case "decodetransaction":
		err = decodeTransactionCmd.Parse(os.Args[2:])
	case "generateaddress":
		err = generateAddressCmd.Parse(os.Args[2:])
	case "recover":
		err = recoverCmd.Parse(os.Args[2:])
	case "sha3":
		err = sha3Cmd.Parse(os.Args[2:])
	case "sign":
		err = signCmd.Parse(os.Args[2:])
	case "createwallet":
		err = createWalletCmd.Parse(os.Args[2:])
	case "listaddresses":
		err = listAddressesCmd.Parse(os.Args[2:])
	default:
		fmt.Println("Unrecognized command")
		cli.printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if startNodeCmd.Parsed() {
		cli.startNode(*startNodeDatadir, *startNodeDebug)
	}
	if createBlockCmd.Parsed() {
		cli.createBlock(*createBlockNumber, *createBlockParent, *createBlockBeneficiary,
			*createBlockTarget, *createBlockTimestamp, *createBlockNonce, createBlockCmd.Args())
	}
	if createTransactionCmd.Parsed() {
		cli.createTransaction(*createTransactionNonce, *createTransactionOut, *createTransactionKey)
	}
	if decodeBlockCmd.Parsed() {
		cli.decodeBlock(firstArg(decodeBlockCmd.Args()))
	}
	if decodeTransactionCmd.Parsed() {
		cli.decodeTransaction(firstArg(decodeTransactionCmd.Args()))
	}
	if generateAddressCmd.Parsed() {
		cli.generateAddress(*generateAddressSeed)
	}
	if recoverCmd.Parsed() {
		args := recoverCmd.Args()
		if len(args) < 2 {
			exitWith(fmt.Errorf("recover needs a message and a signature"))
		}
		cli.recover(args[0], args[1], *recoverHex)
	}
	if sha3Cmd.Parsed() {
		cli.sha3(firstArg(sha3Cmd.Args()), *sha3Hex)
	}
	if signCmd.Parsed() {
		cli.sign(firstArg(signCmd.Args()), *signKey, *signHex)
	}
	if createWalletCmd.Parsed() {
		cli.createWallet(*createWalletDatadir)
	}
	if listAddressesCmd.Parsed() {
		cli.listAddresses(*listAddressesDatadir)
	}
}

func firstArg(args []string) string {
	if len(args) < 1 {
		exitWith(fmt.Errorf("missing argument"))
	}
	return args[0]
}

func exitWith(err error) {
	fmt.Println(err)
	os.Exit(1)
}

func (cli *CommandLine) createBlock(number uint, parent, beneficiary string, target, timestamp, nonce uint, transactions []string) {
	if timestamp == 0 {
		timestamp = uint(wallet.Timestamp())
	}
	block, err := blockchain.NewBlock(uint32(number), parent, beneficiary,
		uint32(target), uint32(timestamp), uint32(nonce))
	if err != nil {
		exitWith(err)
	}
	for _, serialized := range transactions {
		raw, err := hex.DecodeString(serialized)
		if err != nil {
			exitWith(fmt.Errorf("decode transaction: %w", err))
		}
		tx, err := blockchain.DeserializeTransaction(raw)
		if err != nil {
			exitWith(err)
		}
		if err := block.AddTransaction(tx); err != nil {
			exitWith(err)
		}
	}
	fmt.Println(hex.EncodeToString(block.Serialize(true)))
}

// parseOutputs decodes a {"address":amount,...} object, keeping the key
// order of the document because the order is part of the canonical
// transaction encoding.
func parseOutputs(input string) ([]blockchain.TxOutput, error) {
	decoder := json.NewDecoder(strings.NewReader(input))
	token, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("decode outputs: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("decode outputs: expected an object")
	}
	var outputs []blockchain.TxOutput
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("decode outputs: %w", err)
		}
		address, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("decode outputs: expected an address key")
		}
		var amount uint64
		if err := decoder.Decode(&amount); err != nil {
			return nil, fmt.Errorf("decode outputs: %w", err)
		}
		outputs = append(outputs, blockchain.TxOutput{Address: address, Amount: amount})
	}
	if _, err := decoder.Token(); err != nil {
		return nil, fmt.Errorf("decode outputs: %w", err)
	}
	return outputs, nil
}

func (cli *CommandLine) createTransaction(nonce uint, out, privateKey string) {
	outputs, err := parseOutputs(out)
	if err != nil {
		exitWith(err)
	}
	tx, err := blockchain.NewTransaction(uint16(nonce), outputs)
	if err != nil {
		exitWith(err)
	}
	if err := tx.Sign(privateKey); err != nil {
		exitWith(err)
	}
	fmt.Println(hex.EncodeToString(tx.Serialize(true)))
}

func (cli *CommandLine) decodeBlock(data string) {
	raw, err := hex.DecodeString(data)
	if err != nil {
		exitWith(fmt.Errorf("decode block: %w", err))
	}
	block, err := blockchain.DeserializeBlock(raw)
	if err != nil {
		exitWith(err)
	}
	printJSON(block)
}

func (cli *CommandLine) decodeTransaction(data string) {
	raw, err := hex.DecodeString(data)
	if err != nil {
		exitWith(fmt.Errorf("decode transaction: %w", err))
	}
	tx, err := blockchain.DeserializeTransaction(raw)
	if err != nil {
		exitWith(err)
	}
	printJSON(tx)
}

func (cli *CommandLine) generateAddress(seed string) {
	var privateKey string
	if seed != "" {
		privateKey = wallet.PrivateKeyFromSeed(seed)
	} else {
		privateKey = wallet.GeneratePrivateKey()
	}
	pubKey, err := wallet.PublicKeyFromPrivate(privateKey)
	if err != nil {
		exitWith(err)
	}
	address, err := wallet.AddressFromPublic(pubKey)
	if err != nil {
		exitWith(err)
	}
	printJSON(struct {
		Address    string `json:"address"`
		PrivateKey string `json:"private_key"`
		PubKey     string `json:"pub_key"`
	}{address, privateKey, pubKey})
}

func (cli *CommandLine) recover(message, signature string, isHex bool) {
	address, err := wallet.Recover(message, signature, isHex)
	if err != nil {
		exitWith(err)
	}
	fmt.Println(address)
}

func (cli *CommandLine) sha3(input string, isHex bool) {
	digest, err := wallet.Sha3String(input, isHex)
	if err != nil {
		exitWith(err)
	}
	fmt.Println(digest)
}

func (cli *CommandLine) sign(message, privateKey string, isHex bool) {
	signature, err := wallet.Sign(message, privateKey, isHex)
	if err != nil {
		exitWith(err)
	}
	fmt.Println(signature)
}

func (cli *CommandLine) createWallet(datadir string) {
	keystore, err := wallet.OpenKeystore(datadir)
	if err != nil {
		exitWith(err)
	}
	defer keystore.Close()

	address, err := keystore.Create()
	if err != nil {
		exitWith(err)
	}
	fmt.Printf("New wallet created with address: %s\n", address)
}

func (cli *CommandLine) listAddresses(datadir string) {
	keystore, err := wallet.OpenKeystore(datadir)
	if err != nil {
		exitWith(err)
	}
	defer keystore.Close()

	addresses, err := keystore.Addresses()
	if err != nil {
		exitWith(err)
	}
	for _, address := range addresses {
		fmt.Println(address)
	}
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		exitWith(err)
	}
	fmt.Println(string(data))
}
