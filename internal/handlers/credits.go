package handlers

import (
	"net/http"

	"aura/internal/database"
	"aura/internal/models"
)

type purchaseRequest struct {
	PackageID string `json:"package_id"`
}

// Credits returns the balance and recent transactions.
func (a *API) Credits(w http.ResponseWriter, r *http.Request) {
	summary, err := database.GetCreditSummary(currentUser(r).ID, transactionLimit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CreditPackages lists the purchasable packages.
func (a *API) CreditPackages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.CreditPackages)
}

// PurchaseCredits adds a package to the balance. Payment is simulated.
func (a *API) PurchaseCredits(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	balance, err := database.PurchaseCredits(user.ID, req.PackageID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.logger.Printf("User %d purchased credit package %s", user.ID, req.PackageID)
	writeJSON(w, http.StatusOK, map[string]int{"balance": balance})
}
