package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"solwallet/cmd"
	"solwallet/storage"
	"solwallet/wallet"

	"github.com/gagliardetto/solana-go"
)

func main() {
	// Special handling for the 'serve' command before Cobra takes over.
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		startApiServer()
	} else {
		cmd.Execute()
	}
}

// --- API Handlers ---

func openManager(profileName string) (*wallet.Manager, error) {
	db, err := storage.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to open profile storage: %w", err)
	}
	profile, err := db.GetProfile(profileName)
	if err != nil {
		return nil, fmt.Errorf("profile '%s' not found", profileName)
	}
	return wallet.New(profile.Seed, wallet.Config{RPCURL: cmd.GetRpcEndpoint()})
}

func handleGetProfiles(w http.ResponseWriter, r *http.Request) {
	db, err := storage.Connect()
	if err != nil {
		http.Error(w, "failed to connect to profile storage", http.StatusInternalServerError)
		return
	}
	profiles, err := db.ListProfiles()
	if err != nil {
		http.Error(w, "failed to list wallet profiles", http.StatusInternalServerError)
		return
	}
	if profiles == nil {
		profiles = []string{} // Return empty array instead of null
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profiles)
}

type CreateProfileRequest struct {
	Profile string `json:"profile"`
}

func handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	db, err := storage.Connect()
	if err != nil {
		http.Error(w, "Failed to open profile storage", http.StatusInternalServerError)
		return
	}

	mnemonic, publicKey, err := createProfile(db, req.Profile)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create profile '%s': %v", req.Profile, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"profile":   req.Profile,
		"publicKey": publicKey,
		"mnemonic":  mnemonic,
	})
}

// createProfile generates a fresh mnemonic, stores the derived seed under the
// given name and returns the mnemonic with the first account's public key.
// The local seed copy is wiped before returning, the store and the manager
// each hold their own.
func createProfile(db *storage.JSONDB, name string) (string, string, error) {
	mnemonic, err := wallet.NewMnemonic(256)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic)
	if err != nil {
		return "", "", fmt.Errorf("failed to derive seed: %w", err)
	}
	defer func() {
		for i := range seed {
			seed[i] = 0
		}
	}()

	if err := db.SaveProfile(name, seed); err != nil {
		return "", "", fmt.Errorf("failed to save profile: %w", err)
	}

	manager, err := wallet.New(seed, wallet.Config{})
	if err != nil {
		return "", "", fmt.Errorf("failed to open new wallet: %w", err)
	}
	defer manager.Close()

	account, err := manager.Account(0)
	if err != nil {
		return "", "", fmt.Errorf("failed to derive account: %w", err)
	}
	return mnemonic, account.PublicKey().String(), nil
}

func handleGetAddress(w http.ResponseWriter, r *http.Request) {
	profileName := r.URL.Query().Get("profile")
	if profileName == "" {
		http.Error(w, "Missing 'profile' query parameter", http.StatusBadRequest)
		return
	}

	manager, err := openManager(profileName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer manager.Close()

	account, err := manager.Account(0)
	if err != nil {
		http.Error(w, "Failed to derive account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"address": account.PublicKey().String(),
	})
}

func handleGetBalance(w http.ResponseWriter, r *http.Request) {
	profileName := r.URL.Query().Get("profile")
	if profileName == "" {
		http.Error(w, "Missing 'profile' query parameter", http.StatusBadRequest)
		return
	}

	manager, err := openManager(profileName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer manager.Close()

	account, err := manager.Account(0)
	if err != nil {
		http.Error(w, "Failed to derive account", http.StatusInternalServerError)
		return
	}
	balance, err := account.Balance(r.Context())
	if err != nil {
		http.Error(w, "Failed to get balance", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]uint64{
		"lamports": balance,
	})
}

func handleGetFeeRates(w http.ResponseWriter, r *http.Request) {
	profileName := r.URL.Query().Get("profile")
	if profileName == "" {
		http.Error(w, "Missing 'profile' query parameter", http.StatusBadRequest)
		return
	}

	manager, err := openManager(profileName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer manager.Close()

	rates, err := manager.FeeRates(r.Context())
	if err != nil {
		http.Error(w, "Failed to get fee rates", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rates)
}

type SendRequest struct {
	Profile  string `json:"profile"`
	To       string `json:"to"`
	Lamports uint64 `json:"lamports"`
}

func handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Only POST method is allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	recipient, err := solana.PublicKeyFromBase58(req.To)
	if err != nil {
		http.Error(w, "Invalid recipient address", http.StatusBadRequest)
		return
	}

	manager, err := openManager(req.Profile)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer manager.Close()

	account, err := manager.Account(0)
	if err != nil {
		http.Error(w, "Failed to derive account", http.StatusInternalServerError)
		return
	}
	result, err := account.SendTransaction(r.Context(), &wallet.Transaction{
		To:       recipient,
		Lamports: req.Lamports,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to send transaction: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"transactionSignature": result.Signature.String(),
		"fee":                  result.Fee,
	})
}

func handleGetHistory(w http.ResponseWriter, r *http.Request) {
	profileName := r.URL.Query().Get("profile")
	if profileName == "" {
		http.Error(w, "Missing 'profile' query parameter", http.StatusBadRequest)
		return
	}

	manager, err := openManager(profileName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer manager.Close()

	account, err := manager.Account(0)
	if err != nil {
		http.Error(w, "Failed to derive account", http.StatusInternalServerError)
		return
	}
	history, err := account.History(r.Context(), 100)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get transaction history: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

// --- API Server ---

func startApiServer() {
	cmd.GetRpcEndpoint()

	http.HandleFunc("/api/profiles", handleGetProfiles)
	http.HandleFunc("/api/create-profile", handleCreateProfile)
	http.HandleFunc("/api/address", handleGetAddress)
	http.HandleFunc("/api/balance", handleGetBalance)
	http.HandleFunc("/api/fee-rates", handleGetFeeRates)
	http.HandleFunc("/api/send", handleSend)
	http.HandleFunc("/api/history", handleGetHistory)

	port := os.Getenv("SOLWALLET_API_PORT")
	if port == "" {
		port = "8088"
	}
	fmt.Printf("🚀 Solwallet API listening on http://localhost:%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}
