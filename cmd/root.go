package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"solwallet/storage"
	"solwallet/wallet"

	"github.com/AlecAivazis/survey/v2"
	figure "github.com/common-nighthawk/go-figure"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "solwallet",
	Short: "Solwallet helps you manage hierarchical deterministic Solana wallets.",
	Long:  `An interactive command-line interface to derive accounts from a seed, check balances, estimate fees and send SOL or SPL tokens.`,
	Run:   run,
}

// run is the main entry point for the interactive CLI.
func run(cmd *cobra.Command, args []string) {
	GetRpcEndpoint()

	myFigure := figure.NewFigure("SOLWALLET", "larry3d", true)
	fmt.Println(titleStyle.Render(myFigure.String()))

	// The main application loop is wrapped in profile selection.
	for {
		manager, profileName, err := runProfileSelection()
		if err != nil {
			// This error is returned when the user chooses to exit.
			fmt.Println("Exiting solwallet.")
			os.Exit(0)
		}
		runInteractive(manager, profileName)
		manager.Close()
	}
}

// runProfileSelection handles the UI for choosing or creating a wallet profile.
func runProfileSelection() (*wallet.Manager, string, error) {
	db, err := storage.Connect()
	if err != nil {
		panic(fmt.Sprintf("failed to connect to profile storage: %v", err))
	}

	for {
		profiles, err := db.ListProfiles()
		if err != nil {
			panic(fmt.Sprintf("failed to list wallet profiles: %v", err))
		}

		options := append(profiles, "Create New Profile", "Import Profile From Mnemonic", "Exit")

		selection := ""
		prompt := &survey.Select{
			Message: promptStyle.Render("Choose a profile to continue:"),
			Options: options,
		}
		survey.AskOne(prompt, &selection)

		switch selection {
		case "Create New Profile":
			handleCreateProfile(db)
			continue
		case "Import Profile From Mnemonic":
			handleImportProfile(db)
			continue
		case "Exit":
			return nil, "", fmt.Errorf("user exited")
		default: // A profile was selected
			profile, err := db.GetProfile(selection)
			if err != nil {
				panic(fmt.Sprintf("failed to get profile '%s': %v", selection, err))
			}
			manager, err := wallet.New(profile.Seed, wallet.Config{RPCURL: GetRpcEndpoint()})
			if err != nil {
				panic(fmt.Sprintf("failed to open wallet for profile '%s': %v", selection, err))
			}
			return manager, selection, nil
		}
	}
}

func runInteractive(manager *wallet.Manager, profileName string) {
	account, err := manager.Account(0)
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("Failed to derive account: %v", err)))
		return
	}

	fmt.Printf("\n---\n")
	fmt.Println(titleStyle.Render(fmt.Sprintf("Operating with profile: %s", profileName)))
	fmt.Println(promptStyle.Render(fmt.Sprintf("Address: %s", account.PublicKey())))
	fmt.Printf("---\n\n")

	for {
		menu := &survey.Select{
			Message: promptStyle.Render("Choose an action:"),
			Options: []string{
				"View Address",
				"View Balance",
				"View Token Balance",
				"View Fee Rates",
				"Send SOL",
				"Send Token",
				"Quote Transfer",
				"Look Up Transaction",
				"View History",
				"Switch Account",
				"Switch Profile",
			},
			Help: "Use the arrow keys to navigate, and press Enter to select.",
		}

		var choice string
		if err := survey.AskOne(menu, &choice); err != nil {
			fmt.Println(warningStyle.Render(err.Error()))
			return
		}

		switch choice {
		case "View Address":
			viewAddress(account)
		case "View Balance":
			viewBalance(account)
		case "View Token Balance":
			viewTokenBalance(account)
		case "View Fee Rates":
			viewFeeRates(manager)
		case "Send SOL":
			sendSol(account)
		case "Send Token":
			sendToken(account)
		case "Quote Transfer":
			quoteTransfer(account)
		case "Look Up Transaction":
			lookupTransaction(account)
		case "View History":
			viewHistory(account)
		case "Switch Account":
			next := switchAccount(manager)
			if next != nil {
				account = next
			}
		case "Switch Profile":
			return
		}
		fmt.Println()
	}
}

func handleCreateProfile(db *storage.JSONDB) {
	name := ""
	namePrompt := &survey.Input{Message: "Enter a name for the new profile:"}
	survey.AskOne(namePrompt, &name, survey.WithValidator(survey.Required))

	fmt.Println(promptStyle.Render("\nGenerating new mnemonic..."))
	mnemonic, err := wallet.NewMnemonic(256)
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("❌ Failed to generate mnemonic: %v", err)))
		return
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic)
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("❌ Failed to derive seed: %v", err)))
		return
	}
	defer wipeSeed(seed)

	if err := db.SaveProfile(name, seed); err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("❌ Failed to save profile: %v", err)))
		return
	}

	fmt.Println(titleStyle.Render("\n✅ Profile Created!"))
	fmt.Println(warningStyle.Render("Write down this mnemonic, it is shown only once:"))
	fmt.Println(infoStyle.Render("   " + mnemonic))
	fmt.Println(promptStyle.Render("\nPress Enter to continue..."))
	fmt.Scanln()
}

func handleImportProfile(db *storage.JSONDB) {
	name := ""
	namePrompt := &survey.Input{Message: "Enter a name for the imported profile:"}
	survey.AskOne(namePrompt, &name, survey.WithValidator(survey.Required))

	mnemonic := ""
	mnemonicPrompt := &survey.Password{Message: "Enter the mnemonic phrase:"}
	survey.AskOne(mnemonicPrompt, &mnemonic, survey.WithValidator(survey.Required))

	seed, err := wallet.SeedFromMnemonic(mnemonic)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid mnemonic phrase."))
		return
	}
	defer wipeSeed(seed)

	if err := db.SaveProfile(name, seed); err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("❌ Failed to save profile: %v", err)))
		return
	}
	fmt.Println(titleStyle.Render("\n✅ Profile Imported!"))
}

// wipeSeed erases seed material that is no longer needed, the profile store
// keeps its own encoded copy.
func wipeSeed(seed []byte) {
	for i := range seed {
		seed[i] = 0
	}
}

func switchAccount(manager *wallet.Manager) *wallet.Account {
	indexStr := "0"
	indexPrompt := &survey.Input{Message: "Enter the account index:", Default: "0"}
	survey.AskOne(indexPrompt, &indexStr)

	index, err := strconv.Atoi(indexStr)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid account index."))
		return nil
	}

	account, err := manager.Account(index)
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("❌ Failed to derive account: %v", err)))
		return nil
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("\n✅ Switched to account %d", index)))
	fmt.Println(promptStyle.Render(fmt.Sprintf("   Address: %s", account.PublicKey())))
	return account
}

func viewAddress(account *wallet.Account) {
	addr, err := account.Address(context.Background())
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("❌ Failed to get address: %v", err)))
		return
	}
	fmt.Println(titleStyle.Render("\n🔑 Your Current Wallet Address:"))
	fmt.Println(addr)
}

func viewBalance(account *wallet.Account) {
	fmt.Println(promptStyle.Render("\nChecking balance... Please wait."))
	balanceLamports, err := account.Balance(context.Background())
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("\n❌ Failed to get balance: %v", err)))
		return
	}
	balanceSOL := float64(balanceLamports) / float64(solana.LAMPORTS_PER_SOL)
	fmt.Println(titleStyle.Render("\n💰 Your Wallet Balance:"))
	fmt.Printf("   %.9f SOL\n", balanceSOL)
}

func viewTokenBalance(account *wallet.Account) {
	mintStr := ""
	mintPrompt := &survey.Input{Message: "Enter the token mint address:"}
	survey.AskOne(mintPrompt, &mintStr, survey.WithValidator(survey.Required))

	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid mint address."))
		return
	}

	fmt.Println(promptStyle.Render("\nChecking token balance... Please wait."))
	balance, err := account.TokenBalance(context.Background(), mint)
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("\n❌ Failed to get token balance: %v", err)))
		return
	}
	fmt.Println(titleStyle.Render("\n💰 Token Balance:"))
	fmt.Printf("   %d (base units)\n", balance)
}

func viewFeeRates(manager *wallet.Manager) {
	fmt.Println(promptStyle.Render("\nSampling recent prioritization fees..."))
	rates, err := manager.FeeRates(context.Background())
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("\n❌ Failed to get fee rates: %v", err)))
		return
	}
	fmt.Println(titleStyle.Render("\n⛽ Current Fee Rates:"))
	fmt.Println(infoStyle.Render(fmt.Sprintf("   Normal: %d lamports", rates.Normal)))
	fmt.Println(infoStyle.Render(fmt.Sprintf("   Fast:   %d lamports", rates.Fast)))
}

func sendSol(account *wallet.Account) {
	fmt.Println(promptStyle.Render("\n💸 Send SOL"))
	recipientStr := ""
	addrPrompt := &survey.Input{Message: "Enter recipient address:"}
	survey.AskOne(addrPrompt, &recipientStr, survey.WithValidator(survey.Required))
	recipient, err := solana.PublicKeyFromBase58(recipientStr)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid recipient address."))
		return
	}

	amountStr := ""
	amountPrompt := &survey.Input{Message: "Enter amount of SOL to send:"}
	survey.AskOne(amountPrompt, &amountStr, survey.WithValidator(survey.Required))
	amountFloat, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid amount entered."))
		return
	}
	amountLamports := uint64(amountFloat * float64(solana.LAMPORTS_PER_SOL))

	confirm := false
	confirmPrompt := &survey.Confirm{
		Message: fmt.Sprintf("You are about to send %f SOL to %s. Continue?", amountFloat, recipient.String()),
		Default: false,
	}
	survey.AskOne(confirmPrompt, &confirm)
	if !confirm {
		fmt.Println(promptStyle.Render("\nSend cancelled."))
		return
	}

	fmt.Println(promptStyle.Render("\nSending transaction... Please wait."))
	result, err := account.SendTransaction(context.Background(), &wallet.Transaction{
		To:       recipient,
		Lamports: amountLamports,
	})
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("\n❌ Failed to send SOL: %v", err)))
		return
	}

	fmt.Println(titleStyle.Render("\n✅ Transaction Sent Successfully!"))
	fmt.Printf("   Transaction Signature: %s\n", result.Signature.String())
	fmt.Printf("   Fee Paid: %d lamports\n", result.Fee)
}

func sendToken(account *wallet.Account) {
	fmt.Println(promptStyle.Render("\n💸 Send Token"))
	mintStr := ""
	mintPrompt := &survey.Input{Message: "Enter the token mint address:"}
	survey.AskOne(mintPrompt, &mintStr, survey.WithValidator(survey.Required))
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid mint address."))
		return
	}

	recipientStr := ""
	addrPrompt := &survey.Input{Message: "Enter recipient address:"}
	survey.AskOne(addrPrompt, &recipientStr, survey.WithValidator(survey.Required))
	recipient, err := solana.PublicKeyFromBase58(recipientStr)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid recipient address."))
		return
	}

	amountStr := ""
	amountPrompt := &survey.Input{Message: "Enter amount to send (base units):"}
	survey.AskOne(amountPrompt, &amountStr, survey.WithValidator(survey.Required))
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid amount entered."))
		return
	}

	confirm := false
	confirmPrompt := &survey.Confirm{
		Message: fmt.Sprintf("You are about to send %d base units to %s. Continue?", amount, recipient.String()),
		Default: false,
	}
	survey.AskOne(confirmPrompt, &confirm)
	if !confirm {
		fmt.Println(promptStyle.Render("\nSend cancelled."))
		return
	}

	fmt.Println(promptStyle.Render("\nSending transaction... Please wait."))
	result, err := account.Transfer(context.Background(), wallet.TransferOptions{
		To:     recipient,
		Amount: amount,
		Mint:   mint,
	})
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("\n❌ Failed to send token: %v", err)))
		return
	}

	fmt.Println(titleStyle.Render("\n✅ Transaction Sent Successfully!"))
	fmt.Printf("   Transaction Signature: %s\n", result.Signature.String())
	fmt.Printf("   Fee Paid: %d lamports\n", result.Fee)
}

func quoteTransfer(account *wallet.Account) {
	fmt.Println(promptStyle.Render("\n🧮 Quote Transfer"))
	recipientStr := ""
	addrPrompt := &survey.Input{Message: "Enter recipient address:"}
	survey.AskOne(addrPrompt, &recipientStr, survey.WithValidator(survey.Required))
	recipient, err := solana.PublicKeyFromBase58(recipientStr)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid recipient address."))
		return
	}

	amountStr := ""
	amountPrompt := &survey.Input{Message: "Enter amount of SOL to quote:"}
	survey.AskOne(amountPrompt, &amountStr, survey.WithValidator(survey.Required))
	amountFloat, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid amount entered."))
		return
	}

	quote, err := account.QuoteTransfer(context.Background(), wallet.TransferOptions{
		To:     recipient,
		Amount: uint64(amountFloat * float64(solana.LAMPORTS_PER_SOL)),
	})
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("\n❌ Failed to quote transfer: %v", err)))
		return
	}

	fmt.Println(titleStyle.Render("\n🧾 Transfer Quote:"))
	fmt.Printf("   Estimated Fee: %d lamports\n", quote.Fee)
	fmt.Println(promptStyle.Render("   Nothing was submitted to the network."))
}

func lookupTransaction(account *wallet.Account) {
	sigStr := ""
	sigPrompt := &survey.Input{Message: "Enter the transaction signature:"}
	survey.AskOne(sigPrompt, &sigStr, survey.WithValidator(survey.Required))

	sig, err := solana.SignatureFromBase58(sigStr)
	if err != nil {
		fmt.Println(warningStyle.Render("Invalid transaction signature."))
		return
	}

	receipt, err := account.TransactionReceipt(context.Background(), sig)
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("\n❌ Failed to look up transaction: %v", err)))
		return
	}
	if receipt == nil {
		fmt.Println(promptStyle.Render("\nTransaction not confirmed yet."))
		return
	}

	fmt.Println(titleStyle.Render("\n🧾 Transaction Receipt:"))
	fmt.Printf("   Slot: %d\n", receipt.Slot)
	if receipt.BlockTime != nil {
		fmt.Printf("   Block Time: %s\n", receipt.BlockTime.Time())
	}
	if receipt.Meta != nil {
		fmt.Printf("   Fee: %d lamports\n", receipt.Meta.Fee)
		if receipt.Meta.Err != nil {
			fmt.Println(warningStyle.Render(fmt.Sprintf("   Failed on chain: %v", receipt.Meta.Err)))
		}
	}
}

func viewHistory(account *wallet.Account) {
	fmt.Println(promptStyle.Render("\nFetching transaction history... Please wait."))
	history, err := account.History(context.Background(), 50)
	if err != nil {
		fmt.Println(warningStyle.Render(fmt.Sprintf("\n❌ Failed to get history: %v", err)))
		return
	}

	fmt.Println(titleStyle.Render("\n📜 SOL Transfers:"))
	if len(history.SolTransfers) == 0 {
		fmt.Println(promptStyle.Render("   (none)"))
	}
	for _, event := range history.SolTransfers {
		fmt.Println(infoStyle.Render(fmt.Sprintf(
			"   %s  %s  %d lamports  %s",
			event.Timestamp.Format("2006-01-02 15:04"), event.Type, event.Amount, event.Signature,
		)))
	}

	fmt.Println(titleStyle.Render("\n📜 Token Transfers:"))
	if len(history.TokenTransfers) == 0 {
		fmt.Println(promptStyle.Render("   (none)"))
	}
	for _, event := range history.TokenTransfers {
		fmt.Println(infoStyle.Render(fmt.Sprintf(
			"   %s  %s  %d  mint %s",
			event.Timestamp.Format("2006-01-02 15:04"), event.Type, event.Amount, event.Mint,
		)))
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
