package http

import (
	"errors"
	"net/http"
	"path/filepath"

	"aguin/internal/core"
	"aguin/internal/services"
)

// Services

func serviceForm(r *http.Request) services.ServiceForm {
	return services.ServiceForm{
		Name:        formValue(r, "nombre"),
		Description: formValue(r, "descripcion"),
		Price:       formValue(r, "precio"),
	}
}

func (s *Server) handleAdminServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Catalog.Services(r.Context())
	s.adminPage(w, r, "admin_servicios", "Servicios", list, err)
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/servicios", "Servicio registrado correctamente.", "No se pudo registrar el servicio.", false, func(int64) error {
		_, err := s.deps.Catalog.CreateService(r.Context(), serviceForm(r))
		return err
	})
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/servicios", "Servicio actualizado correctamente.", "No se pudo actualizar el servicio.", true, func(id int64) error {
		return s.deps.Catalog.UpdateService(r.Context(), id, serviceForm(r))
	})
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/servicios", "Servicio eliminado correctamente.", "No se pudo eliminar el servicio seleccionado.", true, func(id int64) error {
		return s.deps.Catalog.DeleteService(r.Context(), id)
	})
}

// Packages

type packagesView struct {
	Packages []services.PackageView
	Services []core.Service
}

func (s *Server) handleAdminPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.deps.Catalog.Packages(r.Context())
	if err != nil {
		s.adminPage(w, r, "admin_paquetes", "Paquetes", nil, err)
		return
	}
	list, err := s.deps.Catalog.Services(r.Context())
	s.adminPage(w, r, "admin_paquetes", "Paquetes", packagesView{Packages: pkgs, Services: list}, err)
}

func (s *Server) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/paquetes", "Paquete creado correctamente.", "No se pudo crear el paquete.", false, func(int64) error {
		_, err := s.deps.Catalog.CreatePackage(r.Context(), formValue(r, "nombre"), formIDs(r, "servicios"))
		return err
	})
}

func (s *Server) handleUpdatePackage(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/paquetes", "Paquete actualizado correctamente.", "No se pudo actualizar el paquete.", true, func(id int64) error {
		return s.deps.Catalog.UpdatePackage(r.Context(), id, formValue(r, "nombre"), formIDs(r, "servicios"))
	})
}

func (s *Server) handleDeletePackage(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/paquetes", "Paquete eliminado correctamente.", "No se pudo eliminar el paquete seleccionado.", true, func(id int64) error {
		return s.deps.Catalog.DeletePackage(r.Context(), id)
	})
}

// Galleries

type galleryView struct {
	Galleries      []services.GalleryView
	Reservations   []services.ReservationRow
	UploadsEnabled bool
}

func (s *Server) handleAdminGallery(w http.ResponseWriter, r *http.Request) {
	galleries, err := s.deps.Gallery.Galleries(r.Context())
	if err != nil {
		s.adminPage(w, r, "admin_galeria", "Galería", nil, err)
		return
	}
	rows, err := s.deps.Reservations.List(r.Context())
	s.adminPage(w, r, "admin_galeria", "Galería", galleryView{
		Galleries:      galleries,
		Reservations:   rows,
		UploadsEnabled: s.deps.Gallery.UploadsEnabled(),
	}, err)
}

func (s *Server) handleCreateGallery(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/galeria", "Galería creada correctamente. Ya puedes agregar fotos.", "No se pudo crear la galería.", false, func(int64) error {
		var reservationID *int64
		if id := parseInt64(r.PostFormValue("reserva")); id > 0 {
			reservationID = &id
		}
		_, err := s.deps.Gallery.CreateGallery(r.Context(), formValue(r, "nombre"), reservationID)
		return err
	})
}

func (s *Server) handleDeleteGallery(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/galeria", "Galería eliminada correctamente.", "No se pudo eliminar la galería seleccionada.", true, func(id int64) error {
		return s.deps.Gallery.DeleteGallery(r.Context(), id)
	})
}

// handleAddPhoto takes either an uploaded file in "foto" or a URL in "url".
func (s *Server) handleAddPhoto(w http.ResponseWriter, r *http.Request) {
	const back, success, failure = "/admin/galeria", "Fotografía agregada correctamente.", "No se pudo agregar la fotografía."

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.finish(w, r, back, &core.ValidationError{Field: "foto", Message: "La imagen supera el tamaño permitido."}, "", failure)
		return
	}
	galleryID := parseInt64(r.FormValue("galeria"))

	file, header, err := r.FormFile("foto")
	if err == nil {
		defer file.Close()
		_, err = s.deps.Gallery.UploadPhoto(r.Context(), galleryID, filepath.Base(header.Filename), file)
		s.finish(w, r, back, err, success, failure)
		return
	}

	_, err = s.deps.Gallery.AddPhoto(r.Context(), galleryID, sanitizeInput(r.FormValue("url")))
	s.finish(w, r, back, err, success, failure)
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/galeria", "Fotografía eliminada correctamente.", "No se pudo eliminar la fotografía.", true, func(id int64) error {
		return s.deps.Gallery.DeletePhoto(r.Context(), id)
	})
}
