package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"notesync/internal/app/server/crypto"
)

var (
	keyBits int
	keyOut  string
	keyPath string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Сгенерировать RSA ключ устройства",
	Long: `Создает пару ключей для устройства. С флагом --out приватный ключ пишется в <out>,
публичный в <out>.pub, иначе оба выводятся в stdout.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		kp, err := crypto.GenerateRSAKeyPair(keyBits)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if keyOut == "" {
			fmt.Fprint(out, kp.PrivatePEM)
			fmt.Fprint(out, kp.PublicPEM)
			fmt.Fprintf(out, "fingerprint: %s\n", kp.Fingerprint)
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(keyOut), 0o700); err != nil {
			return err
		}
		if err := os.WriteFile(keyOut, []byte(kp.PrivatePEM), 0o600); err != nil {
			return fmt.Errorf("write private key: %w", err)
		}
		if err := os.WriteFile(keyOut+".pub", []byte(kp.PublicPEM), 0o644); err != nil {
			return fmt.Errorf("write public key: %w", err)
		}
		fmt.Fprintf(out, "fingerprint: %s\n", kp.Fingerprint)
		return nil
	},
}

var signCmd = &cobra.Command{
	Use:   "sign <challenge>",
	Short: "Подписать challenge приватным ключом устройства",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pemData, err := os.ReadFile(keyPath)
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		sig, err := crypto.SignChallenge(string(pemData), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sig)
		return nil
	},
}

func init() {
	keygenCmd.Flags().IntVar(&keyBits, "bits", crypto.DefaultRSABits, "размер RSA ключа")
	keygenCmd.Flags().StringVar(&keyOut, "out", "", "файл для приватного ключа")

	signCmd.Flags().StringVar(&keyPath, "key", "", "приватный ключ в PEM")
	_ = signCmd.MarkFlagRequired("key")
}
