package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"gigchat/go-backend/internal/app"
	"gigchat/go-backend/internal/config"
	"gigchat/go-backend/internal/cryptobox"
	"gigchat/go-backend/internal/keycache"
	"gigchat/go-backend/internal/keydir"
	"gigchat/go-backend/internal/keyring"
	"gigchat/go-backend/internal/platform/privacylog"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	op := flag.String("op", "", "Operation: provision | publish | fingerprint | export | restore | encrypt | decrypt")
	identity := flag.String("identity", "", "Own identity id")
	recipient := flag.String("recipient", "", "Recipient identity id (encrypt)")
	message := flag.String("message", "", "Plaintext message (encrypt)")
	mnemonic := flag.String("mnemonic", "", "Recovery phrase (restore)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("keytool version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}
	if *op == "" || *identity == "" {
		log.Fatal("keytool: -op and -identity are required")
	}

	cfg := config.Load(*configPath)
	svc, err := buildService(cfg)
	if err != nil {
		log.Fatalf("keytool failed to initialize: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, svc, *op, *identity, *recipient, *message, *mnemonic); err != nil {
		log.Fatalf("keytool %s failed: %v", *op, err)
	}
}

func buildService(cfg config.Config) (*app.Service, error) {
	if cfg.Directory.URL == "" {
		return nil, fmt.Errorf("directory url is required (config or GIGCHAT_DIRECTORY_URL)")
	}
	directory, err := keydir.NewHTTPDirectory(cfg.Directory.URL,
		keydir.WithRequestTimeout(cfg.Directory.RequestTimeout),
		keydir.WithPublishLimit(cfg.Directory.PublishRPS, cfg.Directory.PublishBurst),
	)
	if err != nil {
		return nil, err
	}
	cache, err := keycache.NewPersistent(cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	logger := slog.New(privacylog.Wrap(slog.NewJSONHandler(os.Stderr, nil)))
	return app.NewService(app.Options{
		Store:     keyring.NewEncryptedFileSecretStore(cfg.Store.Path, cfg.Store.Passphrase),
		Directory: directory,
		Cache:     cache,
		Logger:    logger,
	}), nil
}

func run(ctx context.Context, svc *app.Service, op, identity, recipient, message, mnemonic string) error {
	switch op {
	case "provision":
		pair, err := svc.GetOrGenerateKeyPair(ctx, identity)
		if err != nil {
			return err
		}
		fp, err := cryptobox.Fingerprint(pair.PublicKey)
		if err != nil {
			return err
		}
		fmt.Printf("public key fingerprint: %s\n", fp)
		if svc.Keys().HasPendingPublish(identity) {
			fmt.Println("warning: public key not yet published, retry with -op publish")
		}
		return nil
	case "publish":
		pair, err := svc.GetOrGenerateKeyPair(ctx, identity)
		if err != nil {
			return err
		}
		return svc.Keys().PublishPublicKey(ctx, identity, pair.PublicKey)
	case "fingerprint":
		key, found, err := svc.RecipientPublicKey(ctx, identity)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("identity has no published key")
		}
		fp, err := cryptobox.Fingerprint(key)
		if err != nil {
			return err
		}
		fmt.Println(fp)
		return nil
	case "export":
		phrase, err := svc.Keys().ExportMnemonic(identity)
		if err != nil {
			return err
		}
		fmt.Println(phrase)
		return nil
	case "restore":
		if mnemonic == "" {
			return fmt.Errorf("-mnemonic is required for restore")
		}
		_, err := svc.Keys().RestoreFromMnemonic(ctx, identity, mnemonic)
		return err
	case "encrypt":
		if recipient == "" {
			return fmt.Errorf("-recipient is required for encrypt")
		}
		env, err := svc.EncryptTo(ctx, identity, recipient, message)
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(env)
	case "decrypt":
		var env cryptobox.Envelope
		if err := json.NewDecoder(os.Stdin).Decode(&env); err != nil {
			return fmt.Errorf("reading envelope from stdin: %w", err)
		}
		plaintext, err := svc.DecryptFor(ctx, identity, env)
		if err != nil {
			return err
		}
		fmt.Println(plaintext)
		return nil
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}
