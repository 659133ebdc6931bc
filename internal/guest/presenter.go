// Package guest handles first-launch onboarding: creating a fresh wallet
// or entering the restore flow.
package guest

// Interactor is the wallet-creation capability the presenter drives.
type Interactor interface {
	CreateWallet()
}

// Router is the navigation capability for the guest screen.
type Router interface {
	NavigateToRestore()
	NavigateToBackupThenMain()
}

// Presenter is a stateless mediator between the guest view, the interactor
// and the router. Wallet-creation failures are the interactor's concern.
type Presenter struct {
	interactor Interactor
	router     Router
}

// NewPresenter wires the presenter to its collaborators.
func NewPresenter(interactor Interactor, router Router) *Presenter {
	return &Presenter{interactor: interactor, router: router}
}

// CreateWalletDidClick handles the create-wallet action.
func (p *Presenter) CreateWalletDidClick() {
	p.interactor.CreateWallet()
}

// RestoreWalletDidClick handles the restore-wallet action.
func (p *Presenter) RestoreWalletDidClick() {
	p.router.NavigateToRestore()
}

// DidCreateWallet is the interactor callback fired once the wallet exists.
func (p *Presenter) DidCreateWallet() {
	p.router.NavigateToBackupThenMain()
}
