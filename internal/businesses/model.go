package businesses

import (
	"time"

	"github.com/guruweb/resto/internal/afip"
)

// Business is one tenant (restaurant).
type Business struct {
	ID               string
	Name             string
	Slug             string
	APIKey           string
	WebhookURL       string
	WebhookStatusURL string
	AFIPCUIT         string
	AFIPToken        string
	AFIPEnvironment  afip.Environment
	AFIPPuntoVenta   int
	AFIPCertificate  string
	AFIPPrivateKey   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AFIPConfigured reports whether invoices can be requested.
func (b Business) AFIPConfigured() bool {
	return b.AFIPCUIT != "" && b.AFIPToken != ""
}

// AFIPCredentials returns the afipsdk credentials of the business.
func (b Business) AFIPCredentials() afip.Credentials {
	env := b.AFIPEnvironment
	if env == "" {
		env = afip.EnvironmentDev
	}
	return afip.Credentials{
		Environment: env,
		CUIT:        b.AFIPCUIT,
		AccessToken: b.AFIPToken,
		Certificate: b.AFIPCertificate,
		PrivateKey:  b.AFIPPrivateKey,
	}
}

// PointOfSale returns the configured punto de venta, defaulting to 1.
func (b Business) PointOfSale() int {
	if b.AFIPPuntoVenta <= 0 {
		return afip.DefaultPointOfSale
	}
	return b.AFIPPuntoVenta
}

// ProfileInput is the editable business profile.
type ProfileInput struct {
	Name             string `form:"name" validate:"required,max=200"`
	WebhookURL       string `form:"webhook_url" validate:"omitempty,url"`
	WebhookStatusURL string `form:"webhook_status_url" validate:"omitempty,url"`
	APIKey           string `form:"api_key" validate:"omitempty,min=16,max=128"`
}

// AFIPSettingsInput carries the electronic invoicing settings.
type AFIPSettingsInput struct {
	CUIT        string `form:"afip_cuit" validate:"required,numeric,len=11"`
	Token       string `form:"afip_token" validate:"required"`
	Environment string `form:"afip_environment" validate:"required,oneof=dev prod"`
	PuntoVenta  int    `form:"afip_punto_venta" validate:"gte=1,lte=99999"`
	Certificate string `form:"afip_certificate"`
	PrivateKey  string `form:"afip_private_key"`
}
