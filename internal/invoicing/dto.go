package invoicing

// Document is the created price-quote document as returned by the provider.
type Document struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	URL    string `json:"url"`
}

// DocumentClient is the customer block on a document request.
type DocumentClient struct {
	Name   string   `json:"name"`
	Phone  string   `json:"phone,omitempty"`
	TaxID  string   `json:"taxId,omitempty"`
	Emails []string `json:"emails,omitempty"`
}

// IncomeLine is one line item on a document request.
type IncomeLine struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	VatType     int     `json:"vatType"`
}

// DocumentRequest is the provider's document creation payload.
type DocumentRequest struct {
	Type        int            `json:"type"`
	Lang        string         `json:"lang"`
	Currency    string         `json:"currency"`
	VatType     int            `json:"vatType"`
	Description string         `json:"description,omitempty"`
	Client      DocumentClient `json:"client"`
	Income      []IncomeLine   `json:"income"`
}

type tokenRequest struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type apiError struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}
