package ledger

import (
	"google.golang.org/grpc"

	"github.com/oggyb/fall-in/internal/app"
)

// Registrar ties the Ledger service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Ledger service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Ledger service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&serviceDesc, NewGRPCServer(NewService(r.appCtx)))
}
