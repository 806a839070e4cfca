package config

import (
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/Vetrovec/chainee/wallet"
)

// FileName is the configuration file expected inside the data directory.
const FileName = "chainee.conf"

// Config holds the operator settings read from <datadir>/chainee.conf.
// Keys live in the implicit default section as plain key=value lines.
type Config struct {
	// DataDir is the absolute path of the data directory the config was
	// read from; the chain and the keystore live under it.
	DataDir string

	// GenesisBeneficiary receives the genesis block reward. The config
	// key is spelled genesisbenficiary, an old typo kept for
	// compatibility with existing deployments.
	GenesisBeneficiary string

	// GenesisTimestamp is the genesis block time in unix seconds.
	GenesisTimestamp uint32
}

// Load reads and validates the configuration inside datadir.
func Load(datadir string) (*Config, error) {
	absDir, err := filepath.Abs(datadir)
	if err != nil {
		return nil, err
	}
	file, err := ini.Load(filepath.Join(absDir, FileName))
	if err != nil {
		return nil, err
	}
	section := file.Section("")
	beneficiary := section.Key("genesisbenficiary").String()
	if !wallet.ValidateAddress(beneficiary) {
		return nil, fmt.Errorf("genesisbenficiary %q is not a valid address", beneficiary)
	}
	timestamp, err := section.Key("genesistimestamp").Uint64()
	if err != nil {
		return nil, fmt.Errorf("genesistimestamp: %w", err)
	}
	return &Config{
		DataDir:            absDir,
		GenesisBeneficiary: beneficiary,
		GenesisTimestamp:   uint32(timestamp),
	}, nil
}
