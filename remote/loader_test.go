/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package remote_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bennypowers.dev/nativefed/importmap"
	"bennypowers.dev/nativefed/model"
	"bennypowers.dev/nativefed/remote"
	"bennypowers.dev/nativefed/remote/mocks"
)

func TestFetchLoader(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)

	const componentURL = "http://localhost:4201/Component-4QZ5BHZL.js"
	const rxjsURL = "http://localhost:4200/rxjs-NQ5CDHIH.js"

	fetcher.EXPECT().Fetch(gomock.Any(), componentURL).Return([]byte("export default 1"), nil)
	fetcher.EXPECT().Fetch(gomock.Any(), rxjsURL).Return([]byte("export const of = 1"), nil)

	loader := remote.NewFetchLoader(fetcher)

	mod, err := loader.ImportModule(context.Background(), componentURL)
	require.NoError(t, err)
	assert.Equal(t, componentURL, mod.URL)
	assert.Equal(t, "export default 1", string(mod.Source))

	loader.SetImportMap(&importmap.ImportMap{Imports: map[string]string{"rxjs": rxjsURL}})
	mod, err = loader.ImportModule(context.Background(), "rxjs")
	require.NoError(t, err)
	assert.Equal(t, rxjsURL, mod.URL)
}

func TestFetchLoaderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().
		Fetch(gomock.Any(), "rxjs").
		Return(nil, &remote.FetchError{URL: "rxjs", StatusCode: 404, Message: "Not Found"})

	loader := remote.NewFetchLoader(fetcher)
	loader.SetImportMap(nil)

	_, err := loader.ImportModule(context.Background(), "rxjs")
	require.ErrorIs(t, err, model.ErrFetch)
}
