// Package ui holds the seams between the headless storefront logic and whatever
// renders it: transient notifications and navigation.
package ui

import "github.com/sirupsen/logrus"

type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

const (
	RouteHome              = "home"
	RouteCatalog           = "catalog"
	RouteOrderConfirmation = "order-confirmation"
)

type Route struct {
	Name    string
	OrderID string
}

func Home() Route    { return Route{Name: RouteHome} }
func Catalog() Route { return Route{Name: RouteCatalog} }

func OrderConfirmation(orderID string) Route {
	return Route{Name: RouteOrderConfirmation, OrderID: orderID}
}

type Navigator interface {
	Navigate(r Route)
}

// Discard drops notifications and navigation requests.
type Discard struct{}

func (Discard) Info(string)    {}
func (Discard) Warn(string)    {}
func (Discard) Error(string)   {}
func (Discard) Navigate(Route) {}

// LogNotifier renders notifications as log lines.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Info(msg string)  { n.Log.Info(msg) }
func (n LogNotifier) Warn(msg string)  { n.Log.Warn(msg) }
func (n LogNotifier) Error(msg string) { n.Log.Error(msg) }
