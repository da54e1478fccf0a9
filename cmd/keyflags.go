package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/AnyUserName/pngseal/internal/keys"
	"github.com/AnyUserName/pngseal/internal/seal"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

// passwordEnv supplies the password when --password is not given.
const passwordEnv = "PNGSEAL_PASSWORD"

// keyFlags are shared by encode and decode.
type keyFlags struct {
	keyFile   string
	password  string
	kdf       string
	kdfParams string
}

func (f *keyFlags) register(cmd *cobra.Command, encode bool) {
	cmd.Flags().StringVar(&f.keyFile, "key-file", "", "32-byte key file (raw or hex)")
	cmd.Flags().StringVar(&f.password, "password", "", "derive the key from a password (or set "+passwordEnv+")")
	if encode {
		cmd.Flags().StringVar(&f.kdf, "kdf", keys.Argon2id, "password KDF: argon2id or pbkdf2")
	} else {
		cmd.Flags().StringVar(&f.kdfParams, "kdf-params", "", "KDF parameter file (default: "+keys.ParamsFileName+" next to the input)")
	}
}

func (f *keyFlags) secret() string {
	if f.password != "" {
		return f.password
	}
	return os.Getenv(passwordEnv)
}

// encodeKey resolves the key for an encode run. A password key gets fresh
// KDF parameters, returned so they can be stored with the outputs.
func (f *keyFlags) encodeKey(ctx context.Context) (*seal.Key, *keys.Params, error) {
	if f.keyFile != "" {
		k, err := keys.File(f.keyFile).Key(ctx)
		if err != nil {
			return nil, nil, errors.Annotate(err, "key")
		}
		return &k, nil, nil
	}
	pw := f.secret()
	if pw == "" {
		return nil, nil, nil
	}
	params, err := keys.NewParams(f.kdf)
	if err != nil {
		return nil, nil, err
	}
	logVerbose("deriving key with %s", params.Algorithm)
	k, err := keys.Password{Secret: []byte(pw), Params: params}.Key(ctx)
	if err != nil {
		return nil, nil, errors.Annotate(err, "derive key")
	}
	return &k, &params, nil
}

// decodeKey resolves the key for a decode run. Password keys are rederived
// from the parameter file written by encode.
func (f *keyFlags) decodeKey(ctx context.Context, input string) (*seal.Key, error) {
	if f.keyFile != "" {
		k, err := keys.File(f.keyFile).Key(ctx)
		if err != nil {
			return nil, errors.Annotate(err, "key")
		}
		return &k, nil
	}
	pw := f.secret()
	if pw == "" {
		return nil, nil
	}
	path := f.kdfParams
	if path == "" {
		dir := input
		if info, err := os.Stat(input); err == nil && !info.IsDir() {
			dir = filepath.Dir(input)
		}
		path = filepath.Join(dir, keys.ParamsFileName)
	}
	params, err := keys.ReadParams(path)
	if err != nil {
		return nil, err
	}
	k, err := keys.Password{Secret: []byte(pw), Params: params}.Key(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "derive key")
	}
	return &k, nil
}
