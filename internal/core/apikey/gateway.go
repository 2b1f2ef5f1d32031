// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apikey

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/aihub/internal/platform/apperr"
	"github.com/taibuivan/aihub/internal/platform/ctxutil"
	"github.com/taibuivan/aihub/internal/platform/metrics"
	requestutil "github.com/taibuivan/aihub/internal/platform/request"
	"github.com/taibuivan/aihub/internal/platform/respond"
	"github.com/taibuivan/aihub/internal/platform/sec"
)

// Gateway outcomes reported to the [KeyObserver].
const (
	AuthMissing = "missing"
	AuthInvalid = "invalid"
	AuthValid   = "valid"
)

// KeyObserver receives one outcome per gateway request.
type KeyObserver interface {
	ObserveKeyAuth(result string)
}

/*
Gateway requires a usable API key on every request it wraps.

# Flow
 1. Extract the key (X-API-Key, Bearer, api_key query).
 2. Resolve it through [Service.Authenticate].
 3. Record the use in the background and inject a [sec.KeyPrincipal].
*/
func Gateway(service *Service, observer KeyObserver) func(http.Handler) http.Handler {
	if observer == nil {
		observer = (*metrics.Recorder)(nil)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			key, err := service.Authenticate(request.Context(), requestutil.APIKey(request))
			if err != nil {
				switch {
				case apperr.HasCode(err, apperr.CodeMissingKey):
					observer.ObserveKeyAuth(AuthMissing)
				case apperr.HasCode(err, apperr.CodeInvalidKey):
					observer.ObserveKeyAuth(AuthInvalid)
					ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "api_key_rejected",
						slog.String("path", request.URL.Path),
					)
				}
				respond.Error(writer, request, err)
				return
			}

			observer.ObserveKeyAuth(AuthValid)
			service.RecordUse(request.Context(), key)

			ctx := ctxutil.WithKeyPrincipal(request.Context(), &sec.KeyPrincipal{KeyID: key.ID, Name: key.Name})
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}
