package users

import (
	"encoding/json"
	"fmt"
	"os"

	id "coppice/pkg/domain"
	dErrors "coppice/pkg/domain-errors"
)

// seedRecord is the on-disk shape of one directory account.
type seedRecord struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	AccountType string `json:"account_type"`
}

// LoadSeedFile builds a directory from a JSON account list. The real
// directory lives in an external identity system; the seed file stands in
// for it in deployments that run without one.
func LoadSeedFile(path string) (*InMemoryDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "read directory seed file")
	}
	var records []seedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "parse directory seed file")
	}

	d := NewInMemoryDirectory()
	for i, r := range records {
		userID, err := id.ParseUserID(r.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput,
				fmt.Sprintf("directory seed entry %d", i))
		}
		d.Put(User{
			ID:          userID,
			FirstName:   r.FirstName,
			LastName:    r.LastName,
			Email:       r.Email,
			AccountType: AccountType(r.AccountType),
		})
	}
	return d, nil
}
