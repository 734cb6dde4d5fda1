package metadata

// Catalog returns the entity declarations of the venue and ticketing
// back-office, ordered so that every referenced table precedes its referrers.
func Catalog() []*Entity {
	return []*Entity{
		lookup("pais", "paises", "País", "Paises devueltos con éxito", "País devuelto con éxito", "País no encontrado"),
		lookup("departamento", "departamentos", "Departamento", "Departamentos devueltos con éxito", "Departamento devuelto con éxito", "Departamento no encontrado"),
		lookup("ciudad", "ciudades", "Ciudad", "Ciudades devueltas con éxito", "Ciudad devuelta con éxito", "Ciudad no encontrada"),
		auditorio(),
		tribuna(),
		localidad(),
		seatGroup("fila"),
		seatGroup("palco"),
		seatGroup("puesto"),
		{
			Name: "evento", Table: "evento", Label: "Evento",
			PrimaryKey: idKey(),
			Fields: []Field{
				{Name: "nombre", Type: TypeText, Required: true},
				key("id_auditorio"),
			},
			References: []Reference{{Field: "id_auditorio", Target: "auditorio"}},
		},
		named("cuponera", "Cuponera"),
		tipoCupon(),
		cupon(),
		cliente(),
		{
			Name: "orden", Table: "orden", Label: "Orden",
			PrimaryKey: idKey(),
			Fields: []Field{
				key("id_cliente"),
				{Name: "total", Type: TypeNumeric, Nullable: true},
			},
			References: []Reference{{Field: "id_cliente", Target: "cliente"}},
		},
		named("grupo_vendedores", "Grupo de vendedores"),
		named("punto_venta", "Punto de venta"),
		imagen(),
		eventoCuponera(),
		grupoVendedoresPto(),
		imagenesAuditorio(),
	}
}

func idKey() PrimaryKey { return PrimaryKey{Field: "id", Generated: true} }

func key(name string) Field { return Field{Name: name, Type: TypeInteger, Required: true} }

func named(name, label string) *Entity {
	return &Entity{
		Name: name, Table: name, Label: label,
		PrimaryKey: idKey(),
		Fields:     []Field{{Name: "nombre", Type: TypeText, Required: true}},
	}
}

func lookup(name, path, label, listed, found, notFound string) *Entity {
	e := named(name, label)
	e.Path = path
	e.Operations = ReadOperations
	e.SearchField = "nombre"
	e.Messages = Messages{
		Listed:      listed,
		Found:       found,
		Searched:    listed,
		SearchedAll: listed,
		NotFound:    notFound,
	}
	return e
}

func seatGroup(name string) *Entity {
	return &Entity{
		Name: name, Table: name, Label: name,
		PrimaryKey: idKey(),
		Fields: []Field{
			{Name: "nombre", Type: TypeText, Required: true},
			key("id_localidad"),
		},
		References: []Reference{{Field: "id_localidad", Target: "localidad"}},
	}
}

func auditorio() *Entity {
	geo := []string{"pais", "ciudad", "departamento"}
	return &Entity{
		Name: "auditorio", Table: "auditorio", Path: "auditorios", Label: "Auditorio",
		PrimaryKey: idKey(),
		Fields: []Field{
			{Name: "nombre", Type: TypeText, Required: true},
			key("id_ciudad"),
			key("id_departamento"),
			key("id_pais"),
			{Name: "direccion", Type: TypeText, Required: true},
			{Name: "longitud", Type: TypeNumeric, Nullable: true, KeepOnNull: true},
			{Name: "latitud", Type: TypeNumeric, Nullable: true, KeepOnNull: true},
			{Name: "aforo", Type: TypeInteger, Nullable: true, KeepOnNull: true},
			{Name: "url_imagen", Type: TypeString, Nullable: true, KeepOnNull: true},
			{Name: "codigo_mapeado", Type: TypeString, Nullable: true, KeepOnNull: true},
		},
		References: []Reference{
			{Field: "id_pais", Target: "pais", Message: "El País indicado no existe"},
			{Field: "id_departamento", Target: "departamento", Message: "El Departamento indicado no existe"},
			{Field: "id_ciudad", Target: "ciudad", Message: "La Ciudad indicada no existe"},
		},
		Relations: []Relation{
			{Name: "pais", Kind: BelongsTo, Target: "pais", LocalKey: "id_pais"},
			{Name: "departamento", Kind: BelongsTo, Target: "departamento", LocalKey: "id_departamento"},
			{Name: "ciudad", Kind: BelongsTo, Target: "ciudad", LocalKey: "id_ciudad"},
			{Name: "tribunas", Kind: HasMany, Target: "tribuna", ForeignKey: "id_auditorio"},
			{Name: "eventos", Kind: HasMany, Target: "evento", ForeignKey: "id_auditorio"},
			{Name: "imagenes", Kind: Through, Target: "imagen", Join: "imagenes_auditorio",
				SourceJoinKey: "id_auditorio", TargetJoinKey: "id_imagen"},
		},
		Operations: []Operation{OpList, OpAll, OpSearch, OpDetail, OpGet, OpCreate, OpUpdate, OpDelete},
		Includes: map[Operation][]string{
			OpList:   geo,
			OpAll:    geo,
			OpSearch: {"pais", "departamento", "ciudad", "imagenes"},
			OpGet:    {"tribunas", "pais", "ciudad", "departamento"},
			OpDetail: {"tribunas", "eventos", "pais", "departamento", "ciudad", "imagenes"},
		},
		SearchField: "nombre",
		Nested:      []string{"tribunas", "localidades"},
		Messages: Messages{
			Listed:        "Auditorios devueltos con éxito",
			Found:         "Auditorio devuelto con éxito",
			Searched:      "Todos los Auditorios filtrados",
			SearchedAll:   "Todos los Auditorios devueltos",
			Created:       "Auditorio creado con éxito",
			Updated:       "Auditorio actualizado con éxito",
			Deleted:       "Auditorio eliminado con éxito",
			NotFound:      "Auditorio no encontrado",
			DeleteBlocked: "El Auditorio no se puede eliminar, es usado en otra tabla",
			Nested:        "Localidades por auditorio devueltas con éxito",
			NestedEmpty:   "El auditorio no posee localidades",
		},
	}
}

func tribuna() *Entity {
	return &Entity{
		Name: "tribuna", Table: "tribuna", Path: "tribunas", Label: "Tribuna",
		PrimaryKey: idKey(),
		Fields: []Field{
			{Name: "nombre", Type: TypeText, Required: true},
			key("id_auditorio"),
		},
		References: []Reference{
			{Field: "id_auditorio", Target: "auditorio", Message: "El auditorio indicado no existe"},
		},
		Relations: []Relation{
			{Name: "auditorio", Kind: BelongsTo, Target: "auditorio", LocalKey: "id_auditorio"},
			{Name: "localidades", Kind: HasMany, Target: "localidad", ForeignKey: "id_tribuna"},
		},
		Operations: []Operation{OpList, OpAll, OpGet, OpCreate, OpUpdate, OpDelete},
		Includes: map[Operation][]string{
			OpList: {"auditorio"},
			OpAll:  {"auditorio"},
			OpGet:  {"auditorio", "localidades"},
		},
		Messages: Messages{
			Listed:        "Tribunas devueltas con éxito",
			Found:         "Tribuna devuelta con éxito",
			Created:       "Tribuna creada con éxito",
			Updated:       "Tribuna actualizada con éxito",
			Deleted:       "Tribuna eliminada con éxito",
			NotFound:      "Tribuna no encontrada",
			DeleteBlocked: "La tribuna no se puede eliminar, es usada en otra tabla",
		},
	}
}

func localidad() *Entity {
	seats := []string{"filas", "palcos", "puestos"}
	return &Entity{
		Name: "localidad", Table: "localidad", Path: "localidades", Label: "Localidad",
		PrimaryKey: idKey(),
		Fields: []Field{
			{Name: "nombre", Type: TypeText, Required: true},
			key("id_tribuna"),
			{Name: "puerta_acceso", Type: TypeAlphaNum, MaxLength: 20, Nullable: true, KeepOnNull: true},
			{Name: "ruta", Type: TypeString, Nullable: true, KeepOnNull: true},
			{Name: "url_imagen", Type: TypeString, Nullable: true, KeepOnNull: true},
		},
		References: []Reference{
			{Field: "id_tribuna", Target: "tribuna", Message: "La Tribuna indicada no existe"},
		},
		Relations: []Relation{
			{Name: "tribuna", Kind: BelongsTo, Target: "tribuna", LocalKey: "id_tribuna"},
			{Name: "filas", Kind: HasMany, Target: "fila", ForeignKey: "id_localidad"},
			{Name: "palcos", Kind: HasMany, Target: "palco", ForeignKey: "id_localidad"},
			{Name: "puestos", Kind: HasMany, Target: "puesto", ForeignKey: "id_localidad"},
		},
		Operations: []Operation{OpList, OpAll, OpSearch, OpGet, OpCreate, OpUpdate, OpDelete},
		Includes: map[Operation][]string{
			OpList:   {"tribuna", "filas", "palcos", "puestos"},
			OpAll:    {"tribuna", "filas", "palcos", "puestos"},
			OpSearch: {"tribuna"},
			OpGet:    seats,
		},
		SearchField: "nombre",
		Messages: Messages{
			Listed:        "Localidades devueltas con éxito",
			Found:         "Localidad devuelta con éxito",
			Searched:      "Todas las localidades filtradas",
			SearchedAll:   "Todas las localidades devueltas",
			Created:       "Localidad creada con éxito",
			Updated:       "Localidad actualizada con éxito",
			Deleted:       "Localidad eliminada con éxito",
			NotFound:      "Localidad no encontrada",
			DeleteBlocked: "La localidad no se puedo eliminar, es usada en otra tabla",
		},
	}
}

func tipoCupon() *Entity {
	return &Entity{
		Name: "tipo_cupon", Table: "tipo_cupon", Path: "tipos-cupon", Label: "Tipo de cupon",
		PrimaryKey: idKey(),
		Fields: []Field{
			{Name: "nombre", Type: TypeText, Required: true, MaxLength: 200},
		},
		Operations: []Operation{OpList, OpAll, OpGet, OpCreate, OpUpdate, OpDelete},
		Messages: Messages{
			Listed:        "Tipos de cupon devueltos con éxito",
			Found:         "Tipo de cupon devuelto con éxito",
			Created:       "Tipo de cupon creado con éxito",
			Updated:       "Tipo de cupon actualizado con éxito",
			Deleted:       "Tipo de cupon eliminado con éxito",
			NotFound:      "Tipo de cupon no encontrado",
			DeleteBlocked: "El tipo de cupon no se puede eliminar, es usado en otra tabla",
		},
	}
}

func cupon() *Entity {
	return &Entity{
		Name: "cupon", Table: "cupon", Path: "cupones", Label: "Cupon",
		PrimaryKey: idKey(),
		Fields: []Field{
			{Name: "status", Type: TypeText, Required: true},
			key("id_tipo_cupon"),
			key("id_cuponera"),
			{Name: "monto", Type: TypeInteger, Default: int64(0)},
			{Name: "porcentaje_descuento", Type: TypeInteger, Default: int64(0)},
			{Name: "cantidad_compra", Type: TypeInteger, Nullable: true},
			{Name: "cantidad_paga", Type: TypeInteger, Nullable: true},
			{Name: "codigo", Type: TypeText, Nullable: true},
		},
		References: []Reference{
			{Field: "id_tipo_cupon", Target: "tipo_cupon", Message: "El tipo de cupon indicado no existe"},
			{Field: "id_cuponera", Target: "cuponera", Message: "La cuponera indicada no existe"},
		},
		Operations: CRUDOperations,
		Messages: Messages{
			Listed:        "Cupones devueltos con éxito",
			Found:         "Cupon devuelto con éxito",
			Created:       "Cupon creado con éxito",
			Updated:       "Cupon actualizado con éxito",
			Deleted:       "Cupon eliminado con éxito",
			NotFound:      "Cupon no encontrado",
			DeleteBlocked: "El Cupon no se puedo eliminar, es usado en otra tabla",
		},
	}
}

func cliente() *Entity {
	return &Entity{
		Name: "cliente", Table: "cliente", Path: "clientes", Label: "Cliente",
		PrimaryKey: idKey(),
		Fields: []Field{
			{Name: "identificacion", Type: TypeText, Required: true},
			{Name: "tipo_identificacion", Type: TypeBoolean, Required: true},
			{Name: "nombrerazon", Type: TypeText, Required: true},
			{Name: "direccion", Type: TypeText, Required: true},
			{Name: "ciudad", Type: TypeText, Nullable: true, UpdateOnly: true},
			{Name: "departamento", Type: TypeText, Nullable: true, UpdateOnly: true},
			{Name: "tipo_cliente", Type: TypeBoolean, Required: true},
			{Name: "email", Type: TypeEmail, Required: true},
			{Name: "telefono", Type: TypeText, Required: true},
		},
		Operations: CRUDOperations,
		Messages: Messages{
			Listed:        "Clientes devueltos con éxito",
			Found:         "Cliente devuelto con éxito",
			Created:       "Cliente creado con éxito",
			Updated:       "Cliente actualizado con éxito",
			Deleted:       "Cliente eliminado con éxito",
			NotFound:      "Cliente no encontrado",
			DeleteBlocked: "El Cliente no se puedo eliminar, es usada en otra tabla",
		},
	}
}

func imagen() *Entity {
	return &Entity{
		Name: "imagen", Table: "imagen", Path: "imagenes", Label: "Imagen",
		PrimaryKey: idKey(),
		Fields: []Field{
			{Name: "nombre", Type: TypeText, Required: true},
			{Name: "url", Type: TypeString, Required: true},
			{Name: "clave", Type: TypeString, Nullable: true},
			{Name: "tipo_mime", Type: TypeString, Nullable: true},
			{Name: "tamano", Type: TypeInteger, Nullable: true},
		},
		Operations: []Operation{OpList, OpGet},
		Messages: Messages{
			Listed:   "Imagenes devueltas con éxito",
			Found:    "Imagen devuelta con éxito",
			Created:  "Imagen creada con éxito",
			NotFound: "Imagen no encontrada",
		},
	}
}

func association(name, path, label string, fixed, varying Reference, msgs Messages) *Entity {
	return &Entity{
		Name: name, Table: name, Path: path, Label: label,
		Fields:      []Field{key(fixed.Field), key(varying.Field)},
		References:  []Reference{fixed, varying},
		Association: &Association{Fixed: fixed.Field, Varying: varying.Field},
		Operations:  CRUDOperations,
		Messages:    msgs,
	}
}

func eventoCuponera() *Entity {
	return association("evento_cuponera", "evento-cuponera", "Cuponera por evento",
		Reference{Field: "id_evento", Target: "evento", Message: "El evento indicado no existe"},
		Reference{Field: "id_cuponera", Target: "cuponera", Message: "La cuponera indicada no existe"},
		Messages{
			Listed:       "Cupones por evento devueltos con éxito",
			Found:        "Cuponeras por evento devueltas con éxito",
			Created:      "Cuponera por evento creado con éxito",
			Updated:      "Cuponera por evento actualizada con éxito",
			Deleted:      "Cuponeras por evento eliminadas con éxito",
			NotFound:     "El evento no contiene cuponeras asociadas",
			Exists:       "Cuponera por evento ya existe",
			PairNotFound: "No se encuentran cuponeras por evento",
		})
}

func grupoVendedoresPto() *Entity {
	return association("grupo_vendedores_pto", "grupo-vendedores-pto", "Grupo de vendedores por punto de venta",
		Reference{Field: "id_grupo_vendedores", Target: "grupo_vendedores", Message: "El grupo de vendedores indicado no existe"},
		Reference{Field: "id_punto_venta", Target: "punto_venta", Message: "El punto de venta indicado no existe"},
		Messages{
			Listed:       "Grupo de Vendedores por punto de venta devueltos con éxito",
			Found:        "Puntos de venta por grupo de vendedor devueltos con éxito",
			Created:      "Grupo de Vendedores por punto de venta creado con éxito",
			Updated:      "Grupo de vendedor por punto de venta actualizado con éxito",
			Deleted:      "Puntos de venta por grupo de vendedor eliminados con éxito",
			NotFound:     "Puntos de venta por grupo de vendedor no encontrados",
			Exists:       "Grupo de Vendedores por punto de venta ya existe",
			UpdateExists: "Grupo de vendedor por punto de venta ya existe",
			PairNotFound: "Grupo de vendedor por punto de venta no se encuentra",
		})
}

func imagenesAuditorio() *Entity {
	return association("imagenes_auditorio", "imagenes-auditorio", "Imagen por auditorio",
		Reference{Field: "id_auditorio", Target: "auditorio", Message: "El auditorio indicado no existe"},
		Reference{Field: "id_imagen", Target: "imagen", Message: "La imagen indicada no existe"},
		Messages{
			Listed:       "Imagenes de auditorios devueltas con éxito",
			Found:        "Imagenes por auditorio devueltas con éxito",
			Created:      "Imagenes de auditorio creado con éxito",
			Updated:      "Imagen por auditorio actualizada con éxito",
			Deleted:      "Imagenes por auditorio eliminadas con éxito",
			NotFound:     "Imagenes por auditorio no encontradas",
			Exists:       "El auditorio ya posee esa imagen asociada",
			UpdateExists: "La imagen por auditorio ya se encuentra asociada",
			PairNotFound: "La imagen por auditorio no se encuentra",
		})
}
