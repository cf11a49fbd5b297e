package httpapi

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/R3E-Network/storefront/internal/app/domain/cart"
	"github.com/R3E-Network/storefront/internal/app/domain/catalog"
	"github.com/R3E-Network/storefront/internal/app/domain/payment"
	"github.com/R3E-Network/storefront/internal/app/domain/tracking"
	"github.com/R3E-Network/storefront/internal/app/domain/user"
)

type account struct {
	user     user.User
	password string
}

// state is the in-memory backing data of the reference API.
type state struct {
	mu sync.Mutex

	products     map[string]catalog.Product
	productOrder []string

	accounts map[string]account // by lowercase email
	tokens   map[string]string  // token -> user id
	carts    map[string][]cart.Item
	payments map[string]payment.Request
	events   []tracking.Event

	// Pricing rules applied when computing cart summaries.
	taxRate         float64
	shippingFlat    float64
	freeShippingMin float64
	// summaryOffset is added to the reported item count to simulate a
	// server whose summary disagrees with its lines.
	summaryOffset int
	// stripDisplay omits product name and image from cart lines.
	stripDisplay bool
}

func newState() *state {
	s := &state{
		products: make(map[string]catalog.Product),
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
		carts:    make(map[string][]cart.Item),
		payments: make(map[string]payment.Request),
	}
	for _, p := range seedProducts() {
		s.addProduct(p)
	}
	return s
}

func (s *state) addProduct(p catalog.Product) {
	if _, exists := s.products[p.ID]; !exists {
		s.productOrder = append(s.productOrder, p.ID)
	}
	s.products[p.ID] = p
}

func (s *state) listProducts() []catalog.Product {
	out := make([]catalog.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		out = append(out, s.products[id])
	}
	return out
}

func (s *state) register(email, password, fullName string) (user.User, string, bool) {
	key := strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.accounts[key]; exists {
		return user.User{}, "", false
	}
	u := user.User{ID: "user_" + uuid.NewString()[:8], Email: key, FullName: fullName, Role: "buyer"}
	s.accounts[key] = account{user: u, password: password}
	return u, s.issueToken(u.ID), true
}

func (s *state) login(email, password string) (user.User, string, bool) {
	acct, ok := s.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || acct.password != password {
		return user.User{}, "", false
	}
	return acct.user, s.issueToken(acct.user.ID), true
}

func (s *state) issueToken(userID string) string {
	token := "tok_" + uuid.NewString()
	s.tokens[token] = userID
	return token
}

func (s *state) userByID(id string) (user.User, bool) {
	for _, acct := range s.accounts {
		if acct.user.ID == id {
			return acct.user, true
		}
	}
	return user.User{}, false
}

func (s *state) userByToken(token string) (user.User, bool) {
	id, ok := s.tokens[token]
	if !ok {
		return user.User{}, false
	}
	return s.userByID(id)
}

func (s *state) addItem(userID string, p catalog.Product, quantity int) {
	items := s.carts[userID]
	for i := range items {
		if items[i].ProductID == p.ID {
			items[i].Quantity += quantity
			items[i].TotalPrice = items[i].LineTotal()
			return
		}
	}
	item := cart.Item{
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductImage: p.PrimaryImage(),
		Quantity:     quantity,
		UnitPrice:    p.Pricing.MinPrice,
		Currency:     p.Pricing.Currency,
		SupplierID:   p.Supplier.ID,
		SupplierName: p.Supplier.Name,
	}
	item.TotalPrice = item.LineTotal()
	s.carts[userID] = append(items, item)
}

func (s *state) setQuantity(userID, productID string, quantity int) bool {
	items := s.carts[userID]
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			s.carts[userID] = append(items[:i], items[i+1:]...)
			return true
		}
		items[i].Quantity = quantity
		items[i].TotalPrice = items[i].LineTotal()
		return true
	}
	return false
}

func (s *state) cartFor(userID string) cart.Cart {
	items := make([]cart.Item, 0, len(s.carts[userID]))
	var subtotal float64
	var count int
	for _, item := range s.carts[userID] {
		subtotal += item.LineTotal()
		count += item.Quantity
		if s.stripDisplay {
			item.ProductName = ""
			item.ProductImage = ""
		}
		items = append(items, item)
	}

	summary := cart.Summary{
		Subtotal:  subtotal,
		Currency:  "USD",
		ItemCount: count + s.summaryOffset,
	}
	summary.Tax = subtotal * s.taxRate
	if count > 0 && s.shippingFlat > 0 && subtotal <= s.freeShippingMin {
		summary.Shipping = s.shippingFlat
	}
	summary.Total = summary.Subtotal + summary.Tax + summary.Shipping

	return cart.Cart{ID: "cart_" + userID, UserID: userID, Items: items, Summary: summary}
}

func (s *state) search(query string) []catalog.Product {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 3 {
			word = strings.TrimSuffix(word, "s")
		}
		terms = append(terms, word)
	}

	var out []catalog.Product
	for _, p := range s.listProducts() {
		haystack := strings.ToLower(p.Name + " " + p.Description + " " + strings.Join(p.Tags, " "))
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (s *state) categories() []catalog.Category {
	var out []catalog.Category
	index := make(map[string]int)
	for _, p := range s.listProducts() {
		i, ok := index[p.Category]
		if !ok {
			i = len(out)
			index[p.Category] = i
			out = append(out, catalog.Category{Name: p.Category})
		}
		out[i].Count++
		if p.Subcategory != "" && !contains(out[i].Subcategories, p.Subcategory) {
			out[i].Subcategories = append(out[i].Subcategories, p.Subcategory)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

var cryptoRates = map[payment.CryptoMethod]float64{
	payment.Bitcoin:  45000,
	payment.Ethereum: 3000,
	payment.USDT:     1,
	payment.USDC:     1,
}

var cryptoAddresses = map[payment.CryptoMethod]string{
	payment.Bitcoin:  "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
	payment.Ethereum: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
	payment.USDT:     "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
	payment.USDC:     "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
}

func seedProducts() []catalog.Product {
	supplier := catalog.Supplier{
		ID:                 "sup_1",
		Name:               "Shenzhen Mobile Co.",
		Country:            "China",
		VerificationStatus: "verified",
		TradeAssurance:     true,
		ResponseRate:       0.97,
		Rating:             4.8,
	}
	return []catalog.Product{
		{
			ID:               "prod_42",
			Name:             "iPhone 15 Pro Max 256GB",
			Description:      "Unlocked smartphone, bulk wholesale lots",
			Category:         "Electronics",
			Subcategory:      "Mobile Phones",
			Images:           []catalog.Image{{URL: "https://img.example/prod_42.jpg", IsPrimary: true}},
			Pricing:          catalog.Pricing{MinPrice: 199.99, MaxPrice: 249.99, Currency: "USD"},
			MinOrderQuantity: 1,
			Supplier:         supplier,
			Tags:             []string{"iphone", "apple", "smartphone"},
			Status:           "active",
		},
		{
			ID:               "prod_43",
			Name:             "iPhone 15 Silicone Case",
			Description:      "Protective case with MagSafe",
			Category:         "Electronics",
			Subcategory:      "Accessories",
			Images:           []catalog.Image{{URL: "https://img.example/prod_43.jpg", IsPrimary: true}},
			Pricing:          catalog.Pricing{MinPrice: 4.5, MaxPrice: 6, Currency: "USD"},
			MinOrderQuantity: 10,
			Supplier:         supplier,
			Tags:             []string{"case", "iphone"},
			Status:           "active",
		},
		{
			ID:               "prod_77",
			Name:             "Industrial LED Floodlight 200W",
			Description:      "IP66 floodlight for warehouses",
			Category:         "Lighting",
			Subcategory:      "Outdoor",
			Images:           []catalog.Image{{URL: "https://img.example/prod_77.jpg"}},
			Pricing:          catalog.Pricing{MinPrice: 38, MaxPrice: 52, Currency: "USD"},
			MinOrderQuantity: 5,
			Supplier:         catalog.Supplier{ID: "sup_2", Name: "Ningbo Lighting Ltd.", Country: "China", VerificationStatus: "pending"},
			Tags:             []string{"led", "floodlight"},
			Status:           "active",
		},
		{
			ID:               "prod_88",
			Name:             "Cotton Work Gloves (pack of 12)",
			Description:      "Knitted cotton gloves for general handling",
			Category:         "Apparel",
			Subcategory:      "Safety",
			Pricing:          catalog.Pricing{MinPrice: 3.2, MaxPrice: 4.1, Currency: "USD"},
			MinOrderQuantity: 50,
			Supplier:         catalog.Supplier{ID: "sup_3", Name: "Dhaka Textiles", Country: "Bangladesh", VerificationStatus: "verified"},
			Tags:             []string{"gloves", "safety"},
			Status:           "active",
		},
	}
}
